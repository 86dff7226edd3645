package model

import (
	"context"
	"encoding/json"
	"strings"
)

// Config keys.
const (
	ConfigKeyTimezone = "timezone"
	ConfigKeyModel    = "model"
)

// ConfigRepository is a key to JSON value store. Set always overwrites the whole value.
type ConfigRepository interface {
	// Get returns ok=false when the key is absent.
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, value any) error
	// Delete is idempotent.
	Delete(ctx context.Context, key string) error
}

// ModelType identifies a text generation backend the user can pick.
type ModelType string

const (
	ModelBigPickle  ModelType = "big-pickle"
	ModelGemini3Pro ModelType = "gemini-3-pro"
)

// DefaultModel is used when nothing valid is stored.
const DefaultModel = ModelBigPickle

// SupportedModels in menu order.
var SupportedModels = []ModelType{ModelBigPickle, ModelGemini3Pro}

// ParseModelType accepts only the exact identifiers.
func ParseModelType(s string) (ModelType, bool) {
	switch ModelType(strings.TrimSpace(s)) {
	case ModelBigPickle:
		return ModelBigPickle, true
	case ModelGemini3Pro:
		return ModelGemini3Pro, true
	}
	return "", false
}

// DisplayName is the label shown to the user.
func (m ModelType) DisplayName() string {
	switch m {
	case ModelBigPickle:
		return "big-pickle (free)"
	default:
		return string(m)
	}
}
