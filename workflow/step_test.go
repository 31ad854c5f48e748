package workflow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStep(t *testing.T) {
	for in, want := range map[string]Step{
		"topic": StepTopic, "TITLE_SELECT": StepTitleSelect, " 3 ": StepBody, "image": StepImage, "5": StepPreview,
	} {
		got, err := ParseStep(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"0", "6", "", "publish"} {
		_, err := ParseStep(in)
		assert.ErrorIs(t, err, ErrInvalidInput, in)
	}
}

func TestStepJSON(t *testing.T) {
	b, err := json.Marshal(map[string]Step{"step": StepBody})
	require.NoError(t, err)
	assert.JSONEq(t, `{"step":"body"}`, string(b))

	var out struct{ Step Step }
	require.NoError(t, json.Unmarshal([]byte(`{"Step":"preview"}`), &out))
	assert.Equal(t, StepPreview, out.Step)

	_, err = json.Marshal(Step(0))
	assert.Error(t, err)
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("back")
	require.NoError(t, err)
	assert.Equal(t, Prev, d)
	d, err = ParseDirection("Next")
	require.NoError(t, err)
	assert.Equal(t, Next, d)
	_, err = ParseDirection("sideways")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
