package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"ragchat/internal/domain"
	"ragchat/internal/metrics"
	"ragchat/pkg/logger"
)

const (
	uploadPath = "/api/v1/upload"
	chatPath   = "/api/v1/chat"
	healthPath = "/api/v1/health"

	defaultUploadDetail = "Failed to upload the file."
	defaultQueryDetail  = "Failed to send the question."
	defaultHealthDetail = "Health check failed."
)

// ErrMalformedResponse is returned when a 2xx body cannot be decoded or lacks required fields.
var ErrMalformedResponse = errors.New("malformed response")

// APIError is a non-2xx reply from the backend. Error returns the detail verbatim.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string { return e.Detail }

// Client talks to the RAG chat backend over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger
	metrics *metrics.Metrics
}

// Config configures the backend client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logger.Logger
	Metrics    *metrics.Metrics
}

// NewClient creates a backend client using the provided configuration.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: t}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  hc,
		log:     log.Named("backend"),
		metrics: cfg.Metrics,
	}
}

// Upload sends file as the multipart field "file" for indexing.
func (c *Client) Upload(ctx context.Context, file domain.File) (domain.UploadResult, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		c.log.Error("upload: open file failed", zap.String("path", file.Path), zap.Error(err))
		return domain.UploadResult{}, fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer f.Close()

	name := file.Name
	if name == "" {
		name = f.Name()
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, pr)
	if err != nil {
		_ = pr.Close()
		return domain.UploadResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		Filename string  `json:"filename"`
		Message  *string `json:"message"`
	}
	if err := c.do(req, "upload", defaultUploadDetail, &out); err != nil {
		return domain.UploadResult{}, err
	}
	if out.Message == nil {
		c.log.Error("upload: response without message")
		return domain.UploadResult{}, fmt.Errorf("upload: %w: missing message", ErrMalformedResponse)
	}
	return domain.UploadResult{Filename: out.Filename, Message: *out.Message}, nil
}

// Query asks the backend a question about the indexed documents.
func (c *Client) Query(ctx context.Context, question string) (domain.Answer, error) {
	data, err := json.Marshal(struct {
		Question string `json:"question"`
	}{Question: question})
	if err != nil {
		return domain.Answer{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(data))
	if err != nil {
		return domain.Answer{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Answer      *string `json:"answer"`
		SourceFound *bool   `json:"source_found"`
	}
	if err := c.do(req, "chat", defaultQueryDetail, &out); err != nil {
		return domain.Answer{}, err
	}
	if out.Answer == nil {
		c.log.Error("chat: response without answer")
		return domain.Answer{}, fmt.Errorf("chat: %w: missing answer", ErrMalformedResponse)
	}
	return domain.Answer{Text: *out.Answer, SourceFound: out.SourceFound}, nil
}

// Health reports whether the backend answers its health endpoint with status "ok".
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return err
	}
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(req, "health", defaultHealthDetail, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("health: unexpected status %q", out.Status)
	}
	return nil
}

// do performs req, maps non-2xx replies to *APIError and decodes 2xx bodies into out.
func (c *Client) do(req *http.Request, endpoint, defaultDetail string, out any) error {
	start := time.Now()
	log := c.log.With(zap.String("endpoint", endpoint), zap.String("url", req.URL.String()))

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(endpoint, "transport_error", time.Since(start))
		log.Error("request failed", zap.Error(err))
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveRequest(endpoint, "transport_error", time.Since(start))
		log.Error("read response failed", zap.Int("status", resp.StatusCode), zap.Error(err))
		return fmt.Errorf("%s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.ObserveRequest(endpoint, "http_error", time.Since(start))
		apiErr := &APIError{StatusCode: resp.StatusCode, Detail: parseDetail(payload, defaultDetail)}
		log.Error("backend returned error", zap.Int("status", resp.StatusCode), zap.String("detail", apiErr.Detail))
		return apiErr
	}

	if err := json.Unmarshal(payload, out); err != nil {
		c.metrics.ObserveRequest(endpoint, "malformed", time.Since(start))
		log.Error("decode response failed", zap.Int("status", resp.StatusCode), zap.Error(err))
		return fmt.Errorf("%s: %w: %v", endpoint, ErrMalformedResponse, err)
	}
	c.metrics.ObserveRequest(endpoint, "ok", time.Since(start))
	log.Debug("request done", zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// parseDetail extracts "detail" from an error body. FastAPI validation errors
// carry a list of {"msg": ...} objects instead of a string.
func parseDetail(payload []byte, fallback string) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || len(body.Detail) == 0 {
		return fallback
	}
	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		if s == "" {
			return fallback
		}
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return fallback
}
