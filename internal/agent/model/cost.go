package model

import (
	"github.com/cloudwego/eino/schema"
)

// Pricing defines USD cost per 1M tokens for input/output.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

// defaultPricing keyed by provider model name (text tokens).
var defaultPricing = map[string]Pricing{
	"big-pickle":           {},
	"gemini-3-pro-preview": {InputPerM: 2.00, OutputPerM: 12.00},
	"gemini-2.5-pro":       {InputPerM: 1.25, OutputPerM: 10.00},
	"gemini-2.5-flash":     {InputPerM: 0.30, OutputPerM: 2.50},
}

// ResolvePricing returns pricing for a provider model, zero if unknown.
func ResolvePricing(model string) Pricing {
	return defaultPricing[model]
}

// ComputeCost converts token usage to USD cost using per-1M Pricing.
func ComputeCost(usage *schema.TokenUsage, p Pricing) (inputCost, outputCost, total float64) {
	if usage == nil {
		return 0, 0, 0
	}
	inputCost = p.InputPerM * float64(usage.PromptTokens) / 1_000_000.0
	outputCost = p.OutputPerM * float64(usage.CompletionTokens) / 1_000_000.0
	total = inputCost + outputCost
	return
}
