// Package publisher turns a finished session into something portable: an
// exported markdown document with front matter, an HTML preview, or a draft
// in a WeChat official account.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"auto_blog_writer/internal/httputil"
)

const defaultWeChatBaseURL = "https://api.weixin.qq.com"

// WeChatConfig holds the official account credentials.
type WeChatConfig struct {
	AppID     string `mapstructure:"app_id" yaml:"app_id"`
	AppSecret string `mapstructure:"app_secret" yaml:"app_secret"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

// Draft describes what is published: usually the output of an export.
type Draft struct {
	Title    string
	Markdown string
	// CoverURL is an http(s) URL or a local file path.
	CoverURL string
	Author   string
	Digest   string
	// BaseDir resolves relative inline image paths.
	BaseDir string
}

type wxResp struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (r wxResp) err(op string) error {
	return fmt.Errorf("wechat %s: %d %s", op, r.ErrCode, r.ErrMsg)
}

type accessTokenResp struct {
	wxResp
	AccessToken string `json:"access_token"`
}

type mediaResp struct {
	wxResp
	MediaID string `json:"media_id"`
	URL     string `json:"url"`
}

type article struct {
	Title              string `json:"title"`
	Author             string `json:"author"`
	Digest             string `json:"digest"`
	Content            string `json:"content"`
	ThumbMediaID       string `json:"thumb_media_id"`
	NeedOpenComment    int    `json:"need_open_comment"`
	OnlyFansCanComment int    `json:"only_fans_can_comment"`
}

// WeChat uploads images and creates drafts through the official account API.
type WeChat struct {
	cfg         WeChatConfig
	client      *http.Client
	log         *slog.Logger
	accessToken string
}

// NewWeChat fetches the access token immediately so it can be reused for
// every call of this publisher.
func NewWeChat(ctx context.Context, cfg WeChatConfig, client *http.Client, log *slog.Logger) (*WeChat, error) {
	if cfg.AppID == "" || cfg.AppSecret == "" {
		return nil, errors.New("wechat config must include app_id and app_secret")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultWeChatBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	w := &WeChat{cfg: cfg, client: client, log: log.With("component", "wechat")}
	if err := w.refreshToken(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// PublishDraft converts the markdown to WeChat-friendly HTML, uploads the
// cover and inline images, and creates a draft. It returns the draft media id.
func (w *WeChat) PublishDraft(ctx context.Context, d Draft) (string, error) {
	if d.Title == "" || d.Markdown == "" || d.CoverURL == "" {
		return "", errors.New("title, markdown and cover are required")
	}
	digest := d.Digest
	if digest == "" {
		digest = Excerpt(d.Markdown)
	}

	withImages, err := w.replaceInlineImages(ctx, d.Markdown, d.BaseDir)
	if err != nil {
		return "", err
	}
	content, err := RenderHTML(withImages)
	if err != nil {
		return "", err
	}
	content = normalizeForWeChat(content)
	w.log.Info("converted markdown", "bytes", len(content))

	thumb, err := w.upload(ctx, "/cgi-bin/material/add_material", d.CoverURL, url.Values{"type": {"image"}})
	if err != nil {
		return "", fmt.Errorf("uploading cover: %w", err)
	}
	w.log.Info("uploaded cover", "media_id", thumb.MediaID)

	mediaID, err := w.addDraft(ctx, article{
		Title:        d.Title,
		Author:       d.Author,
		Digest:       digest,
		Content:      content,
		ThumbMediaID: thumb.MediaID,
	})
	if err != nil {
		return "", err
	}
	w.log.Info("draft created", "media_id", mediaID)
	return mediaID, nil
}

func (w *WeChat) refreshToken(ctx context.Context) error {
	q := url.Values{
		"grant_type": {"client_credential"},
		"appid":      {w.cfg.AppID},
		"secret":     {w.cfg.AppSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.cfg.BaseURL+"/cgi-bin/token?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	var data accessTokenResp
	if err := w.doJSON(ctx, req, &data); err != nil {
		return err
	}
	if data.AccessToken == "" {
		return data.err("access_token")
	}
	w.accessToken = data.AccessToken
	return nil
}

func (w *WeChat) upload(ctx context.Context, endpoint, ref string, extra url.Values) (mediaResp, error) {
	name, data, err := w.fetch(ctx, ref)
	if err != nil {
		return mediaResp{}, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("media", name)
	if err != nil {
		return mediaResp{}, err
	}
	if _, err := part.Write(data); err != nil {
		return mediaResp{}, err
	}
	if err := mw.Close(); err != nil {
		return mediaResp{}, err
	}

	q := url.Values{"access_token": {w.accessToken}}
	for k, v := range extra {
		q[k] = v
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.BaseURL+endpoint+"?"+q.Encode(), bytes.NewReader(body.Bytes()))
	if err != nil {
		return mediaResp{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out mediaResp
	if err := w.doJSON(ctx, req, &out); err != nil {
		return mediaResp{}, err
	}
	if out.MediaID == "" && out.URL == "" {
		return mediaResp{}, out.err("upload")
	}
	return out, nil
}

// fetch loads an image from an http(s) URL or a local path.
func (w *WeChat) fetch(ctx context.Context, ref string) (string, []byte, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return "", nil, err
		}
		resp, err := w.client.Do(req)
		if err != nil {
			return "", nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", nil, fmt.Errorf("downloading %s: status %d", ref, resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", nil, err
		}
		name := path.Base(resp.Request.URL.Path)
		if name == "" || name == "/" || name == "." {
			name = "image.png"
		}
		return name, data, nil
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(ref), data, nil
}

var imgPattern = regexp.MustCompile(`!\[[^\]]*\]\(([^)]+)\)`)

// replaceInlineImages 把正文中的图片上传到微信素材库并替换为微信返回的 URL；
// data: URI 保持不变。
func (w *WeChat) replaceInlineImages(ctx context.Context, src, baseDir string) (string, error) {
	matches := imgPattern.FindAllStringSubmatchIndex(src, -1)
	if len(matches) == 0 {
		return src, nil
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[2], m[3]
		b.WriteString(src[last:start])
		last = end

		ref := strings.TrimSpace(src[start:end])
		if strings.HasPrefix(ref, "data:") {
			b.WriteString(ref)
			continue
		}
		if !strings.Contains(ref, "://") && !filepath.IsAbs(ref) && baseDir != "" {
			ref = filepath.Join(baseDir, ref)
		}
		up, err := w.upload(ctx, "/cgi-bin/media/uploadimg", ref, nil)
		if err != nil {
			return "", fmt.Errorf("uploading inline image %s: %w", ref, err)
		}
		b.WriteString(up.URL)
	}
	b.WriteString(src[last:])
	return b.String(), nil
}

func (w *WeChat) addDraft(ctx context.Context, art article) (string, error) {
	payload, err := json.Marshal(map[string][]article{"articles": {art}})
	if err != nil {
		return "", err
	}
	q := url.Values{"access_token": {w.accessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.BaseURL+"/cgi-bin/draft/add?"+q.Encode(), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out mediaResp
	if err := w.doJSON(ctx, req, &out); err != nil {
		return "", err
	}
	if out.MediaID == "" {
		return "", out.err("draft/add")
	}
	return out.MediaID, nil
}

func (w *WeChat) doJSON(ctx context.Context, req *http.Request, v any) error {
	resp, err := httputil.DoWithRetry(ctx, w.client, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wechat %s: status %d", req.URL.Path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
