package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameworkStatusIsValid(t *testing.T) {
	assert.True(t, FrameworkDraft.IsValid())
	assert.True(t, FrameworkActive.IsValid())
	assert.True(t, FrameworkArchived.IsValid())

	assert.False(t, FrameworkStatus("").IsValid())
	assert.False(t, FrameworkStatus("active").IsValid())
	assert.False(t, FrameworkStatus("RETIRED").IsValid())
}

func TestNewFrameworkStartsInDraft(t *testing.T) {
	f := NewFramework()
	assert.Equal(t, FrameworkDraft, f.Status)
	assert.Zero(t, f.Score, "a fresh framework carries no compliance score")
}

func TestControlStatusWeight(t *testing.T) {
	assert.InDelta(t, 1.0, ControlImplemented.Weight(), 0.001)
	assert.InDelta(t, 0.5, ControlPartial.Weight(), 0.001)
	assert.Zero(t, ControlNotImplemented.Weight())
	assert.Zero(t, ControlStatus("UNKNOWN").Weight())
}
