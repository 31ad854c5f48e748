package credentials

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Image ")
	require.NoError(t, err)
	assert.Equal(t, KindImage, k)

	_, err = ParseKind("video")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(map[Kind]string{KindTitle: " sk-1 ", KindBody: "  "})

	v, ok, err := s.Get(ctx, KindTitle)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sk-1", v)

	_, ok, _ = s.Get(ctx, KindBody)
	assert.False(t, ok, "blank seed values are not stored")

	require.NoError(t, s.Set(ctx, KindBody, "sk-2"))
	v, ok, _ = s.Get(ctx, KindBody)
	assert.True(t, ok)
	assert.Equal(t, "sk-2", v)

	require.NoError(t, s.Set(ctx, KindBody, ""))
	_, ok, _ = s.Get(ctx, KindBody)
	assert.False(t, ok)

	assert.ErrorIs(t, s.Set(ctx, Kind("video"), "x"), ErrUnknownKind)
}

func TestLoadDir(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[Kind]string
	}{
		{
			name: "shared openai key covers title and body",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "openai-api-key", "  sk-openai \n")
				writeFile(t, dir, "replicate-api-key", "r8_abc")
				return dir
			},
			want: map[Kind]string{KindTitle: "sk-openai", KindBody: "sk-openai", KindImage: "r8_abc"},
		},
		{
			name: "kind specific file wins over alias",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "openai-api-key", "sk-openai")
				writeFile(t, dir, "body-api-key", "sk-ant-body")
				return dir
			},
			want: map[Kind]string{KindTitle: "sk-openai", KindBody: "sk-ant-body"},
		},
		{
			name: "missing directory is empty",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope")
			},
			want: map[Kind]string{},
		},
		{
			name: "skips dotfiles and blank files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".image-api-key", "hidden")
				writeFile(t, dir, "title-api-key", "   ")
				return dir
			},
			want: map[Kind]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := LoadDir(tt.setup(t), nil)
			require.NoError(t, err)
			for _, k := range Kinds {
				v, ok, err := s.Get(context.Background(), k)
				require.NoError(t, err)
				want, wantOK := tt.want[k]
				assert.Equal(t, wantOK, ok, "kind %s", k)
				assert.Equal(t, want, v, "kind %s", k)
			}
		})
	}
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	front := NewMemoryStore(nil)
	back := NewMemoryStore(map[Kind]string{KindTitle: "from-back", KindImage: "img"})
	c := Chain{front, back}

	v, ok, err := c.Get(ctx, KindTitle)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "from-back", v)

	require.NoError(t, c.Set(ctx, KindTitle, "from-front"))
	v, _, _ = c.Get(ctx, KindTitle)
	assert.Equal(t, "from-front", v)

	status, err := Status(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, map[Kind]bool{KindTitle: true, KindBody: false, KindImage: true}, status)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "credentials.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)

	_, ok, err := s.Get(ctx, KindImage)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, KindImage, "r8_first"))
	require.NoError(t, s.Set(ctx, KindImage, "r8_second"))
	require.NoError(t, s.Close())

	// Reopen to check the value was persisted.
	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, KindImage)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "r8_second", v)

	require.NoError(t, s.Set(ctx, KindImage, ""))
	_, ok, err = s.Get(ctx, KindImage)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite("  ")
	assert.Error(t, err)
}
