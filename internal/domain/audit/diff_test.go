package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff_OnlyChangedFields(t *testing.T) {
	before := map[string]any{"name": "Acme", "status": "ACTIVE", "domain": "acme.io"}
	after := map[string]any{"name": "Acme Ltd", "status": "ACTIVE", "domain": "acme.io"}

	changes := Diff(before, after)

	assert.Len(t, changes, 1)
	assert.Equal(t, map[string]any{"before": "Acme", "after": "Acme Ltd"}, changes["name"])
}

func TestDiff_AddedAndRemoved(t *testing.T) {
	before := map[string]any{"a": 1}
	after := map[string]any{"b": 2}

	changes := Diff(before, after)

	assert.Equal(t, map[string]any{"before": nil, "after": 2}, changes["b"])
	assert.Equal(t, map[string]any{"before": 1, "after": nil}, changes["a"])
}

func TestDiff_NoChanges(t *testing.T) {
	state := map[string]any{"name": "Acme"}
	assert.Empty(t, Diff(state, state))
}
