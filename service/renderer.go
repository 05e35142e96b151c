package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AnTengye/docsign/config"
	"github.com/AnTengye/docsign/signing"
)

// maxErrorBody caps how much of a failed upstream response is kept.
const maxErrorBody = 64 << 10

// Renderer turns an HTML document into PDF bytes.
type Renderer interface {
	Render(ctx context.Context, htmlDoc string) ([]byte, error)
}

type RendererService struct {
	config     *config.RendererConfig
	httpClient *http.Client
}

var _ Renderer = (*RendererService)(nil)

// RenderRequest is the body sent to the rendering service.
type RenderRequest struct {
	HTML     string `json:"html"`
	PageSize string `json:"page_size,omitempty"`
}

func NewRendererService(cfg *config.RendererConfig) *RendererService {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &RendererService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Render makes a single attempt. Any non-2xx answer becomes a RenderFailure
// carrying the upstream status and body.
func (s *RendererService) Render(ctx context.Context, htmlDoc string) ([]byte, error) {
	jsonData, err := json.Marshal(RenderRequest{HTML: htmlDoc, PageSize: s.config.PageSize})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(s.config.APIURL, "/")+"/render", bytes.NewReader(jsonData))
	if err != nil {
		return nil, signing.RenderFailure(0, "failed to create request", err)
	}
	if s.config.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIToken)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, signing.RenderFailure(0, err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, signing.RenderFailure(resp.StatusCode, string(body), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, signing.RenderFailure(resp.StatusCode, "failed to read response", err)
	}
	return body, nil
}

// NormalizeContent wraps a fragment into a complete HTML document. Content
// that already carries an <html> element is returned as is.
func NormalizeContent(content, title string) string {
	if strings.Contains(strings.ToLower(content), "<html") {
		return content
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	if title != "" {
		b.WriteString("<title>" + html.EscapeString(title) + "</title>\n")
	}
	b.WriteString("</head>\n<body>\n")
	b.WriteString(content)
	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}
