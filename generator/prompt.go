package generator

import "fmt"

// PromptKind 区分标题与正文请求，Mock 实现据此返回不同形态的内容。
type PromptKind int

const (
	KindTitles PromptKind = iota + 1
	KindBody
)

// Prompt 表示发送给 LLM 的一次请求。
type Prompt struct {
	Kind        PromptKind
	System      string
	User        string
	Temperature *float64
	MaxTokens   int
}

// ImagePrompt 表示一次头图生成请求。
type ImagePrompt struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
}

// TitleCount is how many candidates a title request asks for.
const TitleCount = 10

// BuildTitlesPrompt 生成候选标题的提示词。
func BuildTitlesPrompt(topic string) Prompt {
	return Prompt{
		Kind:   KindTitles,
		System: "You are a helpful assistant that generates engaging blog post titles.",
		User: fmt.Sprintf(`Generate %d creative, engaging, and SEO-friendly blog post titles about "%s".
Make them diverse in style (how-to, listicles, thought leadership, etc.).
Return only the titles, one per line, without numbering or dashes.`, TitleCount, topic),
	}
}

// BuildBodyPrompt 生成正文的提示词，输出 Markdown。
func BuildBodyPrompt(title string) Prompt {
	temp := 0.7
	return Prompt{
		Kind:   KindBody,
		System: "You are a professional blog writer who creates engaging, well-structured content in markdown format.",
		User: fmt.Sprintf(`Write a detailed blog post with the title "%s".
Include an introduction, several main points with subheadings, and a conclusion.
Format the content in markdown with proper headings (##), paragraphs, and bullet points where appropriate.
The content should be engaging, informative, and around 500-800 words.`, title),
		Temperature: &temp,
		MaxTokens:   1500,
	}
}

// BuildImagePrompt 生成 16:9 头图的提示词。
func BuildImagePrompt(title string) ImagePrompt {
	return ImagePrompt{
		Prompt: fmt.Sprintf(`A professional blog header image for an article titled "%s". `+
			"Modern, minimalist, high quality, professional photography, 4k resolution, detailed lighting", title),
		NegativePrompt: "text, watermark, low quality, blurry, distorted",
		Width:          1024,
		Height:         576,
	}
}
