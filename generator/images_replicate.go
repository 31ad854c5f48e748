package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"auto_blog_writer/internal/httputil"
)

const (
	defaultReplicateBaseURL = "https://api.replicate.com"
	// stability-ai/sdxl
	defaultReplicateVersion = "db21e45d3f7023abc2a46ee38a23973f6dce16bb082a930b0c49861f96d1e5bf"
	defaultPollInterval     = time.Second
	defaultMaxWait          = 5 * time.Minute
)

// ReplicateImages runs an image model on Replicate. A prediction is created
// and then polled until it reaches a terminal status.
type ReplicateImages struct {
	Version      string
	BaseURL      string
	PollInterval time.Duration
	MaxWait      time.Duration
	Client       *http.Client
	Log          *slog.Logger
}

func NewReplicateImages(s ImageSettings) *ReplicateImages {
	r := &ReplicateImages{
		Version:      s.Model,
		BaseURL:      strings.TrimRight(s.BaseURL, "/"),
		PollInterval: s.PollInterval,
		MaxWait:      s.MaxWait,
	}
	if r.Version == "" {
		r.Version = defaultReplicateVersion
	}
	if r.BaseURL == "" {
		r.BaseURL = defaultReplicateBaseURL
	}
	if r.PollInterval <= 0 {
		r.PollInterval = defaultPollInterval
	}
	if r.MaxWait <= 0 {
		r.MaxWait = defaultMaxWait
	}
	return r
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
}

// outputURL accepts either a list of URLs or a single URL.
func (p prediction) outputURL() string {
	var list []string
	if err := json.Unmarshal(p.Output, &list); err == nil {
		for _, u := range list {
			if u != "" {
				return u
			}
		}
		return ""
	}
	var one string
	if err := json.Unmarshal(p.Output, &one); err == nil {
		return one
	}
	return ""
}

func (r *ReplicateImages) Generate(ctx context.Context, credential string, prompt ImagePrompt) (string, error) {
	if strings.TrimSpace(credential) == "" {
		return "", errors.New("replicate api key is required")
	}
	log := r.Log
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithTimeout(ctx, r.MaxWait)
	defer cancel()

	payload, err := json.Marshal(map[string]any{
		"version": r.Version,
		"input": map[string]any{
			"prompt":              prompt.Prompt,
			"negative_prompt":     prompt.NegativePrompt,
			"width":               prompt.Width,
			"height":              prompt.Height,
			"num_outputs":         1,
			"num_inference_steps": 50,
			"guidance_scale":      7.5,
			"scheduler":           "DPMSolverMultistep",
		},
	})
	if err != nil {
		return "", err
	}
	p, err := r.call(ctx, credential, http.MethodPost, "/v1/predictions", payload)
	if err != nil {
		return "", fmt.Errorf("create prediction: %w", err)
	}
	log.Debug("replicate prediction created", "id", p.ID, "status", p.Status)

	ticker := time.NewTicker(r.PollInterval)
	defer ticker.Stop()
	for {
		switch p.Status {
		case "succeeded":
			u := p.outputURL()
			if u == "" {
				return "", errors.New("replicate: no image url in output")
			}
			return u, nil
		case "failed", "canceled":
			if p.Error != nil {
				return "", fmt.Errorf("image generation %s: %v", p.Status, p.Error)
			}
			return "", fmt.Errorf("image generation %s", p.Status)
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for prediction %s: %w", p.ID, ctx.Err())
		case <-ticker.C:
		}
		if p, err = r.call(ctx, credential, http.MethodGet, "/v1/predictions/"+p.ID, nil); err != nil {
			return "", fmt.Errorf("poll prediction: %w", err)
		}
	}
}

func (r *ReplicateImages) call(ctx context.Context, credential, method, path string, body []byte) (prediction, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, rd)
	if err != nil {
		return prediction{}, err
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return prediction{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return prediction{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Detail != "" {
			return prediction{}, fmt.Errorf("replicate: %s (status %d)", apiErr.Detail, resp.StatusCode)
		}
		return prediction{}, fmt.Errorf("replicate: status %d", resp.StatusCode)
	}
	var p prediction
	if err := json.Unmarshal(data, &p); err != nil {
		return prediction{}, fmt.Errorf("decoding prediction: %w", err)
	}
	if p.ID == "" {
		return prediction{}, errors.New("replicate: prediction has no id")
	}
	return p, nil
}
