// Package hfdata fetches season play-by-play tables from the public NHL
// dataset mirror, or from a local directory holding the same files.
package hfdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/pable/go-xg-metrics/internal/logger"
)

// DefaultBaseURL is the root of the dataset repository.
const DefaultBaseURL = "https://huggingface.co/datasets/RentoSaijo/NHL_DB/resolve/main"

// seasonPath is the location of season tables below the base URL.
const seasonPath = "data/game/pbps/gc"

// FileName returns the published file name for a season, e.g. NHL_PBPS_GC_20232024.csv.gz.
func FileName(season int) string {
	return fmt.Sprintf("NHL_PBPS_GC_%d.csv.gz", season)
}

// Source yields the decompressed CSV table for a season. Callers close the result.
type Source interface {
	Season(ctx context.Context, season int) (io.ReadCloser, error)
}

// Client downloads season tables over HTTP with retries.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	log     logrus.FieldLogger
}

// NewClient returns a dataset client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration, retries int, log logrus.FieldLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = logger.Discard()
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = timeout
	rc.RetryMax = retries
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 10 * time.Second
	rc.CheckRetry = retryPolicy
	rc.Logger = logger.Leveled(log)

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    rc,
		log:     log,
	}
}

// URL returns the download location for a season.
func (c *Client) URL(season int) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, seasonPath, FileName(season))
}

// Season downloads and decompresses one season's table. The body is streamed;
// nothing is buffered to disk.
func (c *Client) Season(ctx context.Context, season int) (io.ReadCloser, error) {
	url := c.URL(season)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	c.log.WithField("season", season).Debugf("GET %s", url)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: HTTP %d", url, resp.StatusCode)
	}
	return Decompress(url, resp.Body)
}

// retryPolicy retries network errors, 429 and 5xx; other statuses are final.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return true, nil
	}
	return false, nil
}

// DirSource reads season tables from a local directory. For each season it
// tries the published .csv.gz name, then .csv.zst, .csv.bz2 and plain .csv.
type DirSource struct {
	Dir string
}

// ErrSeasonNotFound is returned by DirSource when no file matches a season.
var ErrSeasonNotFound = errors.New("season file not found")

// Season opens the first matching file for season.
func (d DirSource) Season(_ context.Context, season int) (io.ReadCloser, error) {
	base := strings.TrimSuffix(FileName(season), ".gz")
	for _, name := range []string{base + ".gz", base + ".zst", base + ".bz2", base} {
		path := filepath.Join(d.Dir, name)
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		return Decompress(name, f)
	}
	return nil, fmt.Errorf("season %d in %s: %w", season, d.Dir, ErrSeasonNotFound)
}
