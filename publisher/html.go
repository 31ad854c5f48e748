package publisher

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderHTML converts markdown to HTML for the preview step. Raw HTML in the
// source is omitted.
func RenderHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderPreview renders the full preview page fragment: header image,
// title and body.
func RenderPreview(a Article) (string, error) {
	body, err := RenderHTML(a.Body)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if a.CoverImage != "" {
		fmt.Fprintf(&b, "<img class=\"cover\" src=\"%s\" alt=\"\">\n", htmlEscape(a.CoverImage))
	}
	fmt.Fprintf(&b, "<h1>%s</h1>\n", htmlEscape(a.Title))
	b.WriteString(body)
	return b.String(), nil
}

var htmlReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&#39;")

func htmlEscape(s string) string { return htmlReplacer.Replace(s) }

var (
	olRe = regexp.MustCompile(`(?s)<ol[^>]*>(.*?)</ol>`)
	ulRe = regexp.MustCompile(`(?s)<ul[^>]*>(.*?)</ul>`)
	liRe = regexp.MustCompile(`(?s)<li[^>]*>(.*?)</li>`)
	hRe  = regexp.MustCompile(`(?s)<h([1-6])[^>]*>(.*?)</h[1-6]>`)
)

var headingSizes = map[string]string{
	"1": "24px",
	"2": "22px",
	"3": "20px",
	"4": "18px",
	"5": "16px",
	"6": "15px",
}

// WeChat 会弱化部分列表和标题标签，导致有序列表合并、标题样式丢失。
// 上传前把列表展开、把标题转成带字号的段落。
func normalizeForWeChat(h string) string {
	h = hRe.ReplaceAllStringFunc(h, func(block string) string {
		parts := hRe.FindStringSubmatch(block)
		size := headingSizes[parts[1]]
		return fmt.Sprintf(`<p style="font-size:%s;font-weight:700;margin:1em 0 0.6em;">%s</p>`, size, strings.TrimSpace(parts[2]))
	})
	h = olRe.ReplaceAllStringFunc(h, func(block string) string {
		return flattenItems(block, func(i int) string { return fmt.Sprintf("%d. ", i+1) })
	})
	h = ulRe.ReplaceAllStringFunc(h, func(block string) string {
		return flattenItems(block, func(int) string { return "• " })
	})
	return h
}

func flattenItems(block string, marker func(i int) string) string {
	items := liRe.FindAllStringSubmatch(block, -1)
	if len(items) == 0 {
		return block
	}
	var b strings.Builder
	for i, item := range items {
		b.WriteString("<p>")
		b.WriteString(marker(i))
		b.WriteString(strings.TrimSpace(item[1]))
		b.WriteString("</p>")
	}
	return b.String()
}
