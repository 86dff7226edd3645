package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/energy-exec/server/internal/agent/graph/nodes"
	"github.com/energy-exec/server/internal/agent/graph/observers"
	"github.com/energy-exec/server/internal/agent/graph/prompts"
	"github.com/energy-exec/server/internal/agent/model"
	errx "github.com/energy-exec/server/internal/core/error"
	"github.com/energy-exec/server/internal/metrics"
	logx "github.com/energy-exec/server/pkg/logger"
)

var tasks = []model.GenerationTask{model.TaskPlan, model.TaskReview, model.TaskDiff, model.TaskChat}

// Generator produces text for a task with the selected model.
type Generator interface {
	Generate(ctx context.Context, task model.GenerationTask, m model.ModelType, vars map[string]any) (string, error)
}

type chainKey struct {
	task  model.GenerationTask
	model model.ModelType
}

// Runner holds one compiled chain per task and configured model.
type Runner struct {
	chains  map[chainKey]compose.Runnable[map[string]any, *schema.Message]
	timeout time.Duration
}

// BuildRunner compiles a template -> chat model chain for every task and model.
func BuildRunner(ctx context.Context, cms *nodes.ChatModels, cfg model.GenerationConfig) (*Runner, error) {
	r := &Runner{
		chains:  map[chainKey]compose.Runnable[map[string]any, *schema.Message]{},
		timeout: cfg.Timeout,
	}

	for _, m := range cms.Available() {
		cm, providerModel, _ := cms.Get(m)
		for _, task := range tasks {
			tpl, err := prompts.ChatTemplate(task)
			if err != nil {
				return nil, err
			}

			chain := compose.NewChain[map[string]any, *schema.Message](
				compose.WithGenLocalState(func(ctx context.Context) *model.GenerationState {
					return &model.GenerationState{}
				}),
			)
			chain.
				AppendChatTemplate(tpl,
					compose.WithNodeName(nodes.NodeTemplate),
					compose.WithStatePreHandler(nodes.NewTemplatePreHandler(task, m, providerModel))).
				AppendChatModel(cm,
					compose.WithNodeName(nodes.NodeChatModel),
					compose.WithStatePostHandler(nodes.NewChatModelPostHandler()))

			runnable, err := chain.Compile(ctx, compose.WithGraphName(fmt.Sprintf("%s-%s", task, m)))
			if err != nil {
				logx.Error().Err(err).Str("task", string(task)).Str("model", string(m)).Msg("Failed to compile generation chain")
				return nil, fmt.Errorf("compile %s chain for %s: %w", task, m, err)
			}
			r.chains[chainKey{task, m}] = runnable
		}
	}

	logx.Info().Int("chains", len(r.chains)).Msg("Generation chains compiled")
	return r, nil
}

// Generate renders the task prompt and returns the trimmed model reply.
// Every failure, including an empty reply, wraps errx.ErrGenerationUnavailable.
func (r *Runner) Generate(ctx context.Context, task model.GenerationTask, m model.ModelType, vars map[string]any) (string, error) {
	chain, ok := r.chains[chainKey{task, m}]
	if !ok {
		logx.Error().Str("task", string(task)).Str("model", string(m)).Msg("No generation chain for model")
		return "", errx.WrapGeneration(fmt.Errorf("model %s is not configured", m))
	}

	if vars == nil {
		vars = map[string]any{}
	}
	if _, ok := vars[prompts.VarRequestID]; !ok {
		vars[prompts.VarRequestID] = uuid.NewString()
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := chain.Invoke(ctx, vars, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err == nil && (out == nil || strings.TrimSpace(out.Content) == "") {
		err = errors.New("empty model response")
	}
	metrics.ObserveGeneration(string(task), string(m), time.Since(start), err)
	if err != nil {
		logx.Error().Err(err).
			Str("request_id", fmt.Sprint(vars[prompts.VarRequestID])).
			Str("task", string(task)).
			Str("model", string(m)).
			Dur("elapsed", time.Since(start)).
			Msg("Generation failed")
		return "", errx.WrapGeneration(err)
	}

	logx.Info().
		Str("request_id", fmt.Sprint(vars[prompts.VarRequestID])).
		Str("task", string(task)).
		Str("model", string(m)).
		Dur("elapsed", time.Since(start)).
		Msg("Generation completed")
	return strings.TrimSpace(out.Content), nil
}

var _ Generator = (*Runner)(nil)
