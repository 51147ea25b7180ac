package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"resume-analyzer-web/internal/shared/telemetry"
)

const maxResponseBytes = 4 << 20

// Upload is the file handed to the analysis service.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Client posts resumes to the analysis endpoint.
type Client struct {
	endpoint   string
	field      string
	httpClient *http.Client
}

// NewClient constructs a Client. A nil httpClient gets a client with no
// timeout beyond the transport defaults.
func NewClient(endpoint, field string, httpClient *http.Client) *Client {
	if strings.TrimSpace(field) == "" {
		field = "resume"
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		endpoint:   endpoint,
		field:      field,
		httpClient: httpClient,
	}
}

// Endpoint returns the URL resumes are posted to.
func (c *Client) Endpoint() string { return c.endpoint }

// Analyze sends one multipart request and decodes the response.
// Errors are *TransportError, *StatusError or *DecodeError.
func (c *Client) Analyze(ctx context.Context, up Upload) (*Result, error) {
	body, contentType, err := c.encode(up)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	telemetry.Info("analysis.response", map[string]any{
		"status":      resp.StatusCode,
		"bytes":       len(raw),
		"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: raw}
	}

	result, err := Decode(raw)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return result, nil
}

func (c *Client) encode(up Upload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	ct := strings.TrimSpace(up.ContentType)
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(c.field), escapeQuotes(up.FileName)))
	h.Set("Content-Type", ct)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(up.Data); err != nil {
		return nil, "", fmt.Errorf("write form part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
