package flows

import (
	"strings"

	"github.com/energy-exec/server/internal/agent/model"
)

const skipWord = "skip"

// ParseBodyBattery reads a leading integer the way a lenient number prompt
// would ("75", "+75", "75%", " 75 points") and accepts it only within 0..100.
func ParseBodyBattery(text string) (int, bool) {
	s := strings.TrimSpace(text)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n, digits := 0, 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		digits++
		if n <= 100 {
			n = n*10 + int(c-'0')
		}
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	if n < 0 || n > 100 {
		return 0, false
	}
	return n, true
}

// IsSkip reports whether an optional answer was left out.
func IsSkip(text string) bool {
	s := strings.ToLower(strings.TrimSpace(text))
	return s == "" || s == skipWord
}

// ParseAppointments lowercases the answer and maps the "none"/"no" sentinel
// and an empty answer to no appointments.
func ParseAppointments(text string) []string {
	s := strings.ToLower(strings.TrimSpace(text))
	switch s {
	case "", "none", "no":
		return nil
	}
	return []string{s}
}

// ModelSelection is the outcome of ParseModelSelection.
type ModelSelection struct {
	Matched bool
	Model   model.ModelType
}

// ParseModelSelection matches a reply to the /models menu: the item number
// or the exact model identifier, case-insensitive.
func ParseModelSelection(text string) ModelSelection {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "1", string(model.ModelBigPickle), model.ModelBigPickle.DisplayName():
		return ModelSelection{Matched: true, Model: model.ModelBigPickle}
	case "2", string(model.ModelGemini3Pro):
		return ModelSelection{Matched: true, Model: model.ModelGemini3Pro}
	}
	return ModelSelection{}
}

func optionalText(text string) *string {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}
	return &s
}
