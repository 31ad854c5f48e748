package credentials

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// fileKinds maps secret file names onto kinds. A title/body key shares the
// OpenAI key unless its own file is present; the image key falls back to
// the Replicate key.
var fileKinds = []struct {
	name  string
	kinds []Kind
}{
	{"openai-api-key", []Kind{KindTitle, KindBody}},
	{"replicate-api-key", []Kind{KindImage}},
	{"title-api-key", []Kind{KindTitle}},
	{"body-api-key", []Kind{KindBody}},
	{"image-api-key", []Kind{KindImage}},
}

// LoadDir reads a directory of plain-text secret files, one secret per file
// with the file name as key. A missing directory yields an empty store.
// Unreadable files are logged and skipped.
func LoadDir(dir string, log *slog.Logger) (*MemoryStore, error) {
	if log == nil {
		log = slog.Default()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return NewMemoryStore(nil), nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	raw := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", "name", name, "err", err)
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			raw[name] = v
		}
	}

	seed := make(map[Kind]string)
	// Later entries override earlier ones, so kind-specific files win.
	for _, fk := range fileKinds {
		v, ok := raw[fk.name]
		if !ok {
			continue
		}
		for _, k := range fk.kinds {
			seed[k] = v
		}
	}
	return NewMemoryStore(seed), nil
}
