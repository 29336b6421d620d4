package webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"sentry-hq/conduit/pkg/clock"
	"sentry-hq/conduit/pkg/comm"
	"sentry-hq/conduit/pkg/connectors"
	"sentry-hq/conduit/pkg/trust"
)

const (
	// OpFetch retrieves a page into memory, optionally extracting content.
	OpFetch = "fetch"

	// OpDownload streams a resource to disk.
	OpDownload = "download"
)

// DefaultMaxResponseBytes caps fetch bodies when no policy limit is set.
const DefaultMaxResponseBytes = 5 << 20

// Config configures the web_fetch connector.
type Config struct {
	// Client is the SSRF-guarded HTTP client. Required.
	Client *connectors.SafeClient

	// Classifier assigns the trust tier of fetched documents. Required.
	Classifier *trust.Classifier

	// MaxResponseBytes bounds response bodies; zero selects
	// DefaultMaxResponseBytes.
	MaxResponseBytes int64

	// Clock supplies fetched_at timestamps. Nil uses the system clock.
	Clock clock.Clock
}

// FetchResult is the outcome of a fetch operation.
type FetchResult struct {
	URL           string            `json:"url"`
	FinalURL      string            `json:"final_url"`
	StatusCode    int               `json:"status_code"`
	Content       string            `json:"content"`
	Headers       map[string]string `json:"headers"`
	ContentType   string            `json:"content_type"`
	ContentLength int64             `json:"content_length"`
	Extracted     *ExtractedContent `json:"extracted,omitempty"`
	Document      *Document         `json:"document,omitempty"`
}

// Fetcher is the web_fetch connector.
type Fetcher struct {
	connectors.Base
	cfg Config
}

// New creates the web_fetch connector.
func New(cfg Config) *Fetcher {
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = DefaultMaxResponseBytes
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System()
	}
	return &Fetcher{
		Base: connectors.NewBase(comm.KindWebFetch, OpFetch, OpDownload),
		cfg:  cfg,
	}
}

// Execute implements connectors.Connector.
func (f *Fetcher) Execute(ctx context.Context, operation string, params map[string]any) (any, error) {
	switch operation {
	case OpFetch:
		return f.fetch(ctx, params)
	case OpDownload:
		return f.download(ctx, params)
	default:
		return nil, connectors.NewUnsupportedOperationError(f.Kind(), operation)
	}
}

// HealthCheck implements connectors.HealthChecker. The connector has no
// fixed back-end; it is healthy whenever it is enabled.
func (f *Fetcher) HealthCheck(_ context.Context) error {
	if !f.Enabled() {
		return fmt.Errorf("web_fetch connector is disabled")
	}
	return nil
}

func (f *Fetcher) fetch(ctx context.Context, params map[string]any) (*FetchResult, error) {
	rawURL := comm.StringParam(params, "url")
	if rawURL == "" {
		return nil, connectors.NewMissingParamError(f.Kind(), "url")
	}
	extract := comm.BoolParam(params, "extract_content", true)
	method := strings.ToUpper(strings.TrimSpace(comm.StringParam(params, "method")))
	if method == "" {
		method = http.MethodGet
	}
	headers := comm.StringMapParam(params, "headers")
	var body io.Reader
	if raw := comm.StringParam(params, "body"); raw != "" {
		body = strings.NewReader(raw)
	}

	resp, err := f.cfg.Client.Do(ctx, method, rawURL, headers, body)
	if err != nil {
		return nil, connectors.NewExecutionError(f.Kind(), OpFetch, err)
	}
	defer resp.Body.Close()

	// An advertised Content-Length over the limit is rejected before a
	// single body byte is read.
	if resp.ContentLength > f.cfg.MaxResponseBytes {
		return nil, connectors.NewResponseTooLargeError(f.Kind(), f.cfg.MaxResponseBytes)
	}

	respBody, err := readBounded(resp.Body, f.cfg.MaxResponseBytes)
	if err != nil {
		if err == errTooLarge {
			return nil, connectors.NewResponseTooLargeError(f.Kind(), f.cfg.MaxResponseBytes)
		}
		return nil, connectors.NewExecutionError(f.Kind(), OpFetch, err)
	}

	contentType := resp.Header.Get("Content-Type")
	res := &FetchResult{
		URL:           rawURL,
		FinalURL:      resp.Request.URL.String(),
		StatusCode:    resp.StatusCode,
		Content:       string(respBody),
		Headers:       flattenHeaders(resp.Header),
		ContentType:   contentType,
		ContentLength: int64(len(respBody)),
	}

	if extract && strings.Contains(contentType, "text/html") {
		res.Extracted = ExtractHTML(res.Content)
	}

	tier := f.cfg.Classifier.Classify(res.FinalURL, comm.KindWebFetch)
	res.Document = BuildDocument(res, res.Extracted, tier, f.cfg.Clock.Now())

	return res, nil
}

var errTooLarge = fmt.Errorf("response body exceeds size limit")

// readBounded reads at most limit bytes; one byte past the limit means
// the body is oversized, and the read stops there.
func readBounded(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, errTooLarge
	}
	return body, nil
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
