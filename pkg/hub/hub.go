// Package hub reads dataset rows from a Hugging Face datasets-server
// compatible endpoint.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/theokoles7/parcus/pkg/config"
	"github.com/theokoles7/parcus/pkg/logging"
)

const MaxPageSize = 100

// Spec names one split of one dataset configuration on the hub.
type Spec struct {
	Path   string
	Subset string
	Split  string
}

func (s Spec) String() string {
	return fmt.Sprintf("%s/%s/%s", s.Path, s.subset(), s.Split)
}

func (s Spec) subset() string {
	if s.Subset == "" {
		return "default"
	}
	return s.Subset
}

type Row map[string]any

type PageRow struct {
	RowIdx int `json:"row_idx"`
	Row    Row `json:"row"`
}

type Page struct {
	Rows         []PageRow `json:"rows"`
	NumRowsTotal int       `json:"num_rows_total"`
	Partial      bool      `json:"partial"`
}

type Client struct {
	http     *retryablehttp.Client
	limiter  *rate.Limiter
	endpoint string
	token    string
	pageSize int
	cacheDir string
	log      *logrus.Entry
}

func New(cfg config.Hub) *Client {
	log := logging.Get("hub")

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.Logger = logging.Leveled{Entry: log}
	retryClient.HTTPClient.Timeout = time.Duration(cfg.Timeout) * time.Second
	retryClient.HTTPClient.Transport = &LoggingTransport{
		Transport: retryClient.HTTPClient.Transport,
		Log:       log,
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, int(cfg.RateLimit)))
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	cacheDir := cfg.CacheDir
	if cfg.NoCache {
		cacheDir = ""
	}

	return &Client{
		http:     retryClient,
		limiter:  limiter,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		token:    cfg.Token,
		pageSize: pageSize,
		cacheDir: cacheDir,
		log:      log,
	}
}

// Rows fetches a single page starting at offset.
func (c *Client) Rows(ctx context.Context, spec Spec, offset, length int) (*Page, error) {
	if spec.Path == "" || spec.Split == "" {
		return nil, fmt.Errorf("dataset path and split are required")
	}

	query := url.Values{}
	query.Set("dataset", spec.Path)
	query.Set("config", spec.subset())
	query.Set("split", spec.Split)
	query.Set("offset", fmt.Sprint(offset))
	query.Set("length", fmt.Sprint(length))

	cachePath := c.cachePath(spec, offset, length)
	if cachePath != "" {
		if body, err := os.ReadFile(cachePath); err == nil {
			c.log.Debugf("serving %s rows %d-%d from cache", spec, offset, offset+length)
			return decodePage(body)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/rows?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "parcus")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rows for %s: %w", spec, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows for %s: %w", spec, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Spec: spec, StatusCode: resp.StatusCode, Body: snippet(body)}
	}

	page, err := decodePage(body)
	if err != nil {
		return nil, err
	}

	if cachePath != "" && !page.Partial {
		if err := writeCache(cachePath, body); err != nil {
			c.log.WithError(err).Warn("failed to cache rows")
		}
	}

	return page, nil
}

// Fetch pages through spec until limit rows are read or the split is
// exhausted. A limit of zero or less reads the whole split.
func (c *Client) Fetch(ctx context.Context, spec Spec, limit int) ([]Row, error) {
	var rows []Row
	offset := 0

	for {
		length := c.pageSize
		if limit > 0 {
			length = min(length, limit-len(rows))
		}
		if length <= 0 {
			break
		}

		page, err := c.Rows(ctx, spec, offset, length)
		if err != nil {
			return nil, err
		}
		for _, r := range page.Rows {
			rows = append(rows, r.Row)
		}

		offset += len(page.Rows)
		if len(page.Rows) == 0 || offset >= page.NumRowsTotal {
			break
		}
	}

	c.log.Debugf("fetched %d rows from %s", len(rows), spec)
	return rows, nil
}

type StatusError struct {
	Spec       Spec
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hub returned status %d for %s: %s", e.StatusCode, e.Spec, e.Body)
}

func decodePage(body []byte) (*Page, error) {
	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to parse rows response: %w", err)
	}
	return &page, nil
}

func (c *Client) cachePath(spec Spec, offset, length int) string {
	if c.cacheDir == "" {
		return ""
	}
	return filepath.Join(c.cacheDir,
		filepath.FromSlash(spec.Path),
		spec.subset(),
		spec.Split,
		fmt.Sprintf("%d-%d.json", offset, length),
	)
}

func writeCache(path string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func snippet(body []byte) string {
	const limit = 500
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		s = s[:limit]
	}
	return s
}

var ErrEmpty = errors.New("no rows returned")
