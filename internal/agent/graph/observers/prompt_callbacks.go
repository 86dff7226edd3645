package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/prompt"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/energy-exec/server/pkg/logger"
)

// newPromptHandler logs the rendered prompt at debug level.
func newPromptHandler() *callbackHelper.PromptCallbackHandler {
	return &callbackHelper.PromptCallbackHandler{
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *prompt.CallbackOutput) context.Context {
			if output == nil {
				return ctx
			}
			for i, m := range output.Result {
				if m == nil {
					continue
				}
				logx.Debug().
					Str("node", info.Name).
					Int("index", i).
					Str("role", string(m.Role)).
					Str("content", m.Content).
					Msg("Prompt rendered")
			}
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("node", info.Name).Msg("Prompt render failed")
			return ctx
		},
	}
}
