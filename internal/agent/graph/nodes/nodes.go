package nodes

import (
	"context"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/energy-exec/server/internal/agent/graph/prompts"
	"github.com/energy-exec/server/internal/agent/model"
	"github.com/energy-exec/server/internal/metrics"
	logx "github.com/energy-exec/server/pkg/logger"
)

const (
	NodeTemplate  = "Template"
	NodeChatModel = "ChatModel"
)

// NewTemplatePreHandler seeds the chain state before the prompt is rendered.
func NewTemplatePreHandler(task model.GenerationTask, m model.ModelType, providerModel string) func(context.Context, map[string]any, *model.GenerationState) (map[string]any, error) {
	return func(ctx context.Context, in map[string]any, s *model.GenerationState) (map[string]any, error) {
		if id, ok := in[prompts.VarRequestID].(string); ok && id != "" {
			s.RequestID = id
		} else {
			s.RequestID = uuid.NewString()
		}
		s.Task = task
		s.Model = m
		s.ProviderModel = providerModel
		s.TotalCostUSD = 0

		logx.Debug().
			Str("request_id", s.RequestID).
			Str("task", string(task)).
			Str("model", string(m)).
			Msg("Rendering generation prompt")
		return in, nil
	}
}

// NewChatModelPostHandler computes and logs usage cost for the model reply.
func NewChatModelPostHandler() func(context.Context, *schema.Message, *model.GenerationState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.GenerationState) (*schema.Message, error) {
		if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
			return out, nil
		}
		usage := out.ResponseMeta.Usage
		inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(state.ProviderModel))
		if out.Extra == nil {
			out.Extra = map[string]any{}
		}
		out.Extra["usage_cost"] = map[string]any{
			"currency":          "USD",
			"model":             state.ProviderModel,
			"prompt_tokens":     usage.PromptTokens,
			"completion_tokens": usage.CompletionTokens,
			"total_tokens":      usage.TotalTokens,
			"input_cost":        inC,
			"output_cost":       outC,
			"total_cost":        totalC,
		}
		state.TotalCostUSD += totalC

		logx.Debug().
			Str("request_id", state.RequestID).
			Str("node", NodeChatModel).
			Str("task", string(state.Task)).
			Str("model", state.ProviderModel).
			Int("prompt_tokens", usage.PromptTokens).
			Int("completion_tokens", usage.CompletionTokens).
			Int("total_tokens", usage.TotalTokens).
			Float64("total_cost_usd", totalC).
			Msg("LLM usage")

		metrics.AddUsage(state.ProviderModel, usage.PromptTokens, usage.CompletionTokens, totalC)
		return out, nil
	}
}
