package main

import (
	"github.com/inquora/atlas/backend/internal/server"
	"github.com/inquora/atlas/backend/internal/util"
	"github.com/inquora/atlas/backend/pkg/logger"
	"github.com/inquora/atlas/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	logger.Init(console.New(console.Params{
		Debug:  debug,
		Prefix: "server",
	}))

	server.Init()
}
