package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/inquora/atlas/backend/internal/util"
	"github.com/inquora/atlas/backend/pkg/common"
)

// hierarchyTokenBudget caps how much of the existing hierarchy is included
// in a classification prompt. Beyond it, only root-level topics are sent.
const hierarchyTokenBudget = 6000

// TopicClassification is the model's verdict for a single candidate topic.
type TopicClassification struct {
	Topic       string  `json:"topic" jsonschema_description:"Exact name of the candidate topic being classified"`
	Action      string  `json:"action" jsonschema:"enum=keep_root,enum=make_child,enum=merge" jsonschema_description:"How the candidate relates to the existing hierarchy"`
	TargetTopic string  `json:"target_topic" jsonschema_description:"Exact name of the hierarchy topic to attach to or merge into. Empty for keep_root"`
	Confidence  float64 `json:"confidence" jsonschema_description:"Confidence in this classification between 0 and 1"`
	Reasoning   string  `json:"reasoning" jsonschema_description:"One sentence explaining the decision"`
}

// TopicClassificationResponse is the structured output schema for a
// classification batch.
type TopicClassificationResponse struct {
	Classifications []TopicClassification `json:"classifications" jsonschema_description:"One classification per candidate topic, in input order"`
}

// ClassifyTopicBatch asks the model to place a batch of candidate topics
// into the existing hierarchy. The hierarchy context is trimmed to root
// topics when the full rendering would blow the token budget.
func ClassifyTopicBatch(
	ctx context.Context,
	client GraphAIClient,
	candidates []string,
	hierarchy []common.TopicNode,
	maxRetries int,
	opts ...GenerateOption,
) ([]TopicClassification, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	hierarchyText := renderHierarchy(hierarchy, false)
	if countTokens(hierarchyText) > hierarchyTokenBudget {
		hierarchyText = renderHierarchy(hierarchy, true)
	}
	if hierarchyText == "" {
		hierarchyText = "(empty)"
	}

	candidateText := "- " + strings.Join(candidates, "\n- ")
	prompt := fmt.Sprintf(topicClassificationPromptTemplate, hierarchyText, candidateText)

	opts = append([]GenerateOption{
		WithSystemPrompts(topicClassificationSystemPrompt),
		WithTemperature(0.1),
	}, opts...)

	var response TopicClassificationResponse
	err := util.RetryErrWithContext(ctx, maxRetries, func(ctx context.Context) error {
		response = TopicClassificationResponse{}
		return client.GenerateCompletionWithFormat(
			ctx,
			"topic_classification",
			"Classification of candidate topics against an existing topic hierarchy",
			prompt,
			&response,
			opts...,
		)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to classify topic batch: %w", err)
	}

	return response.Classifications, nil
}

// renderHierarchy formats the hierarchy one topic per line, indented by
// level. With rootsOnly set, only level-zero topics are included.
func renderHierarchy(hierarchy []common.TopicNode, rootsOnly bool) string {
	var sb strings.Builder
	for _, node := range hierarchy {
		if rootsOnly && node.Level != 0 {
			continue
		}
		sb.WriteString(strings.Repeat("  ", node.Level))
		sb.WriteString("- ")
		sb.WriteString(node.Name)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func countTokens(text string) int {
	encoding, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		// Rough fallback: about four characters per token.
		return len(text) / 4
	}
	return len(encoding.Encode(text, nil, nil))
}
