package flows

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/energy-exec/server/internal/agent/model"
)

func TestParseBodyBattery(t *testing.T) {
	valid := map[string]int{
		"0": 0, "100": 100, "75": 75, " 42 ": 42, "+5": 5, "-0": 0,
		"75%": 75, "80 points": 80, "007": 7,
	}
	for in, want := range valid {
		got, ok := ParseBodyBattery(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "abc", "-1", "101", "150", "99999999999999999999", "+", "x50"} {
		_, ok := ParseBodyBattery(in)
		assert.False(t, ok, in)
	}
}

func TestParseAppointments(t *testing.T) {
	assert.Nil(t, ParseAppointments("None"))
	assert.Nil(t, ParseAppointments(" no "))
	assert.Nil(t, ParseAppointments(""))
	assert.Equal(t, []string{"doctor at 10am"}, ParseAppointments("Doctor at 10AM"))
	assert.Equal(t, []string{"nothing much"}, ParseAppointments("nothing much"))
}

func TestIsSkip(t *testing.T) {
	assert.True(t, IsSkip("skip"))
	assert.True(t, IsSkip(" Skip "))
	assert.True(t, IsSkip(""))
	assert.False(t, IsSkip("skipping"))
}

func TestParseModelSelection(t *testing.T) {
	assert.Equal(t, ModelSelection{Matched: true, Model: model.ModelBigPickle}, ParseModelSelection("1"))
	assert.Equal(t, ModelSelection{Matched: true, Model: model.ModelBigPickle}, ParseModelSelection(" Big-Pickle "))
	assert.Equal(t, ModelSelection{Matched: true, Model: model.ModelGemini3Pro}, ParseModelSelection("2"))
	assert.Equal(t, ModelSelection{Matched: true, Model: model.ModelGemini3Pro}, ParseModelSelection("gemini-3-pro"))

	for _, in := range []string{"3", "gemini", "I like big-pickle", "12", ""} {
		assert.False(t, ParseModelSelection(in).Matched, in)
	}
}
