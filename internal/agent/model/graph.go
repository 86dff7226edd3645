package model

// GenerationTask names the kind of text requested from the model.
type GenerationTask string

const (
	TaskPlan   GenerationTask = "plan"
	TaskReview GenerationTask = "review"
	TaskDiff   GenerationTask = "diff"
	TaskChat   GenerationTask = "chat"
)

// GenerationState is the per-invocation local state of a generation chain.
// It is only touched inside eino state handlers.
type GenerationState struct {
	RequestID     string
	Task          GenerationTask
	Model         ModelType
	ProviderModel string
	TotalCostUSD  float64
}
