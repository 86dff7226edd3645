package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "energy_exec"

// Registry holds every collector exported on /metrics.
var Registry = prometheus.NewRegistry()

var (
	generationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "generation_total",
		Help:      "LLM generations by task, model and outcome.",
	}, []string{"task", "model", "outcome"})

	generationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "generation_duration_seconds",
		Help:      "Wall time of LLM generations.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
	}, []string{"task", "model"})

	generationTokens = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "generation_tokens_total",
		Help:      "Tokens consumed by LLM generations.",
	}, []string{"model", "kind"})

	generationCost = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "generation_cost_usd_total",
		Help:      "Estimated USD cost of LLM generations.",
	}, []string{"model"})

	messagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_total",
		Help:      "Chat messages handled, by direction.",
	}, []string{"direction"})

	flowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flows_total",
		Help:      "Conversation flow transitions, by flow and event.",
	}, []string{"flow", "event"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		generationTotal,
		generationDuration,
		generationTokens,
		generationCost,
		messagesTotal,
		flowsTotal,
	)
}

// Handler serves Registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

func ObserveGeneration(task, model string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	generationTotal.WithLabelValues(task, model, outcome).Inc()
	generationDuration.WithLabelValues(task, model).Observe(d.Seconds())
}

func AddUsage(model string, promptTokens, completionTokens int, costUSD float64) {
	generationTokens.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	generationTokens.WithLabelValues(model, "completion").Add(float64(completionTokens))
	if costUSD > 0 {
		generationCost.WithLabelValues(model).Add(costUSD)
	}
}

func IncMessage(direction string) {
	messagesTotal.WithLabelValues(direction).Inc()
}

// IncFlow records a flow event such as "started", "completed" or "failed".
func IncFlow(flow, event string) {
	flowsTotal.WithLabelValues(flow, event).Inc()
}
