// Package elastic bulk-indexes run records into Elasticsearch.
package elastic

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	es8 "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/sirupsen/logrus"

	"github.com/theokoles7/parcus/pkg/config"
	"github.com/theokoles7/parcus/pkg/logging"
)

const DefaultIndex = "parcus_results"

type Client struct {
	es    *es8.Client
	index string
	log   *logrus.Entry
}

func New(cfg config.Elastic) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("elasticsearch URL is required")
	}
	index := cfg.Index
	if strings.TrimSpace(index) == "" {
		index = DefaultIndex
	}

	es, err := es8.NewClient(es8.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	res, err := es.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to elasticsearch: %w", err)
	}
	res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("failed to connect to elasticsearch: %s", res.Status())
	}

	return &Client{es: es, index: index, log: logging.Get("elastic")}, nil
}

func (c *Client) Index() string { return c.index }

// IndexJSONLinesFile indexes every non-empty line of filename as one
// document. It returns the number of documents indexed.
func (c *Client) IndexJSONLinesFile(ctx context.Context, filename string) (int, error) {
	f, err := os.Open(filename)
	if err != nil {
		return 0, fmt.Errorf("failed to open jsonl file: %w", err)
	}
	defer f.Close()

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:     c.es,
		Index:      c.index,
		NumWorkers: 4,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	var failed atomic.Int64
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 8*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		item := esutil.BulkIndexerItem{
			Action: "index",
			Body:   strings.NewReader(line),
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, resp esutil.BulkIndexerResponseItem, err error) {
				failed.Add(1)
				if err != nil {
					c.log.WithError(err).Debug("bulk item failed")
				} else {
					c.log.Debugf("bulk item failed: %s: %s", resp.Error.Type, resp.Error.Reason)
				}
			},
		}
		if err := bi.Add(ctx, item); err != nil {
			return 0, fmt.Errorf("bulk add failed: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scanner error: %w", err)
	}

	if err := bi.Close(ctx); err != nil {
		return 0, fmt.Errorf("bulk indexer close failed: %w", err)
	}

	stats := bi.Stats()
	if n := failed.Load(); n > 0 {
		return int(stats.NumIndexed), fmt.Errorf("%d of %d documents failed to index", n, stats.NumAdded)
	}
	c.log.Debugf("Indexed %d documents into %s", stats.NumIndexed, c.index)
	return int(stats.NumIndexed), nil
}
