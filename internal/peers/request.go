package peers

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/salary-evaluator/internal/equity"
)

const (
	userAgent       = "spigell/salary-evaluator"
	acceptTypes     = "application/json, text/csv;q=0.9"
	contentEncoding = "gzip"
)

// Client fetches peer tables from an HR export endpoint.
type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
}

func NewClient(logger *zap.Logger, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		token:  strings.TrimSpace(token),
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		UserAgent: userAgent,
	}
}

// Fetch downloads a peer table. JSON bodies may be a list or carry an items
// list; text/csv bodies are parsed as CSV.
func (c *Client) Fetch(ctx context.Context, url string) ([]equity.Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)

	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	format := FormatJSON
	if mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && mediaType == "text/csv" {
		format = FormatCSV
	}

	rows, err := Decode(format, data)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("got peer table", zap.String("format", format), zap.Int("rows", len(rows)))
	return rows, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", acceptTypes)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}
