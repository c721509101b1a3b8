package routes

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// collectionID parses the :id path parameter.
func collectionID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
