package generator

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
type MockLLM struct {
	calls atomic.Int64
}

func (m *MockLLM) Complete(_ context.Context, _ string, prompt Prompt) (string, error) {
	n := m.calls.Add(1)
	subject := quoted(prompt.User)

	var sb strings.Builder
	switch prompt.Kind {
	case KindTitles:
		for i := 1; i <= TitleCount; i++ {
			fmt.Fprintf(&sb, "%d. %s, Part %d\n", i, subject, i)
		}
	default:
		fmt.Fprintf(&sb, "## %s\n\n", subject)
		fmt.Fprintf(&sb, "Draft %d. This is a locally generated placeholder about %s.\n\n", n, subject)
		sb.WriteString("## Key Points\n\n- First point\n- Second point\n\n## Conclusion\n\nThanks for reading.\n")
	}
	return sb.String(), nil
}

// quoted returns the first "..." span of s, or s itself.
func quoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return s
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return s
	}
	return s[start+1 : start+1+end]
}
