package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTitles(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "plain lines with blanks",
			raw:  "Why Mars Matters\n\n  The Moon Again  \n\n",
			want: []string{"Why Mars Matters", "The Moon Again"},
		},
		{
			name: "strips numbering, bullets and quotes",
			raw:  "1. \"Why Mars Matters\"\n2) Rockets 101\n- Orbit Life\n• “Stars”",
			want: []string{"Why Mars Matters", "Rockets 101", "Orbit Life", "Stars"},
		},
		{
			name: "keeps numbers that are part of the title",
			raw:  "10 Reasons to Go to Space\n2025: A Space Year",
			want: []string{"10 Reasons to Go to Space", "2025: A Space Year"},
		},
		{
			name: "empty",
			raw:  "\n \n",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTitles(tt.raw))
		})
	}
}

func TestPostProcess(t *testing.T) {
	out, err := PostProcess("```markdown\n## Intro\n\nText\n```")
	require.NoError(t, err)
	assert.Equal(t, "## Intro\n\nText", out)

	out, err = PostProcess("  ## Plain\n")
	require.NoError(t, err)
	assert.Equal(t, "## Plain", out)

	_, err = PostProcess(" \n\t")
	assert.Error(t, err)
}

func TestPrompts(t *testing.T) {
	p := BuildTitlesPrompt("Space Exploration")
	assert.Equal(t, KindTitles, p.Kind)
	assert.Contains(t, p.User, `"Space Exploration"`)
	assert.Contains(t, p.User, "one per line")

	b := BuildBodyPrompt("Why Mars Matters")
	assert.Equal(t, KindBody, b.Kind)
	require.NotNil(t, b.Temperature)
	assert.Equal(t, 0.7, *b.Temperature)
	assert.Equal(t, 1500, b.MaxTokens)

	img := BuildImagePrompt("Why Mars Matters")
	assert.Equal(t, 1024, img.Width)
	assert.Equal(t, 576, img.Height)
	assert.Contains(t, img.Prompt, `"Why Mars Matters"`)
}
