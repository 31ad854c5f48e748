package generator

import (
	"errors"
	"regexp"
	"strings"
)

// listMarker matches leading "1.", "2)", "-", "*" or "•" that models add
// despite being told not to.
var listMarker = regexp.MustCompile(`^(?:\d+[.)]|[-*•])\s+`)

// ParseTitles 按行切分模型输出，去掉空行、编号和包裹引号，保持原有顺序。
func ParseTitles(raw string) []string {
	var titles []string
	for _, line := range strings.Split(raw, "\n") {
		t := strings.TrimSpace(line)
		t = listMarker.ReplaceAllString(t, "")
		t = strings.Trim(t, `"“”`)
		t = strings.TrimSpace(t)
		if t != "" {
			titles = append(titles, t)
		}
	}
	return titles
}

// PostProcess 校验正文 Markdown，去掉模型偶尔包裹的 ```markdown 代码块。
func PostProcess(raw string) (string, error) {
	md := strings.TrimSpace(raw)
	if strings.HasPrefix(md, "```") {
		if nl := strings.IndexByte(md, '\n'); nl >= 0 && strings.HasSuffix(md, "```") {
			md = strings.TrimSpace(md[nl+1 : len(md)-3])
		}
	}
	if md == "" {
		return "", errors.New("model returned empty markdown")
	}
	return md, nil
}
