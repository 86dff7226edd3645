package nodes

import (
	"github.com/cloudwego/eino/schema"
	"github.com/sashabaranov/go-openai"
)

func toOpenAIRole(r schema.RoleType) string {
	switch r {
	case schema.System:
		return openai.ChatMessageRoleSystem
	case schema.Assistant:
		return openai.ChatMessageRoleAssistant
	case schema.Tool:
		return openai.ChatMessageRoleTool
	default:
		return openai.ChatMessageRoleUser
	}
}

// toOpenAIMessages keeps role and text; nil or empty messages are dropped.
func toOpenAIMessages(in []*schema.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(in))
	for _, m := range in {
		if m == nil || m.Content == "" {
			continue
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:    toOpenAIRole(m.Role),
			Content: m.Content,
		})
	}
	return out
}
