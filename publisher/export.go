package publisher

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

const (
	excerptLimit  = 150
	excerptSuffix = "..."
	// isoLayout matches JavaScript's Date.toISOString.
	isoLayout = "2006-01-02T15:04:05.000Z"
	fence     = "---"
)

// Article is the final selection handed to the exporter.
type Article struct {
	Title      string
	Body       string
	CoverImage string
}

// Author is the static byline written into every exported document.
type Author struct {
	Name    string `mapstructure:"name" yaml:"name" json:"name"`
	Picture string `mapstructure:"picture" yaml:"picture" json:"picture"`
}

type OGImage struct {
	URL string `yaml:"url" json:"url"`
}

// FrontMatter is the metadata header of an exported document.
type FrontMatter struct {
	Title      string  `yaml:"title" json:"title"`
	Excerpt    string  `yaml:"excerpt" json:"excerpt"`
	CoverImage string  `yaml:"coverImage" json:"cover_image"`
	Date       string  `yaml:"date" json:"date"`
	Author     Author  `yaml:"author" json:"author"`
	OGImage    OGImage `yaml:"ogImage" json:"og_image"`
}

// Exporter 把选中的标题、正文、封面图组装成带 front matter 的 Markdown 文档。
type Exporter struct {
	Author Author
	Now    func() time.Time
}

func NewExporter(author Author) *Exporter {
	return &Exporter{Author: author, Now: time.Now}
}

// Export renders the front matter block followed by the raw body.
func (e *Exporter) Export(a Article) (string, error) {
	if strings.TrimSpace(a.Title) == "" || strings.TrimSpace(a.Body) == "" || strings.TrimSpace(a.CoverImage) == "" {
		return "", errors.New("export requires title, body and cover image")
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	fm := FrontMatter{
		Title:      a.Title,
		Excerpt:    Excerpt(a.Body),
		CoverImage: a.CoverImage,
		Date:       now().UTC().Format(isoLayout),
		Author:     e.Author,
		OGImage:    OGImage{URL: a.CoverImage},
	}

	var buf bytes.Buffer
	buf.WriteString(fence + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return "", fmt.Errorf("encoding front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding front matter: %w", err)
	}
	buf.WriteString(fence + "\n")
	buf.WriteString(a.Body)
	return buf.String(), nil
}

// Excerpt 取正文第一行非空、非标题的文本，截断到 150 个字符并追加省略号。
func Excerpt(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r := []rune(line)
		if len(r) > excerptLimit {
			r = r[:excerptLimit]
		}
		return string(r) + excerptSuffix
	}
	return ""
}

// ParseDocument splits an exported document into its front matter and body.
func ParseDocument(doc string) (FrontMatter, string, error) {
	doc = strings.TrimPrefix(doc, "\ufeff")
	if !strings.HasPrefix(doc, fence+"\n") {
		return FrontMatter{}, "", errors.New("document has no front matter")
	}
	rest := doc[len(fence)+1:]
	end := strings.Index(rest, "\n"+fence+"\n")
	if end < 0 {
		return FrontMatter{}, "", errors.New("front matter is not terminated")
	}
	var fm FrontMatter
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return FrontMatter{}, "", fmt.Errorf("parsing front matter: %w", err)
	}
	return fm, rest[end+len(fence)+2:], nil
}
