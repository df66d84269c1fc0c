// Package update checks GitHub for newer releases and bumps the version
// recorded in the metadata source file.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/theokoles7/parcus/pkg/logging"
	"github.com/theokoles7/parcus/pkg/meta"
)

const (
	GitHubAPI     = "https://api.github.com/repos/theokoles7/parcus/releases/latest"
	UpdateTimeout = 30 * time.Second
)

type GitHubRelease struct {
	TagName     string `json:"tag_name"`
	Name        string `json:"name"`
	HTMLURL     string `json:"html_url"`
	PublishedAt string `json:"published_at"`
}

type Checker struct {
	http *retryablehttp.Client
	url  string
}

func NewChecker(url string) *Checker {
	if url == "" {
		url = GitHubAPI
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.HTTPClient.Timeout = UpdateTimeout
	client.Logger = logging.Leveled{Entry: logging.Get("update")}
	return &Checker{http: client, url: url}
}

func (c *Checker) GetLatestVersion(ctx context.Context) (*GitHubRelease, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", meta.Title+"-updater")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest version: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &release, nil
}

// CompareVersions reports whether latest is newer than current.
func CompareVersions(current, latest string) bool {
	c, _ := parseLoose(current)
	l, _ := parseLoose(latest)

	for i := 0; i < 3; i++ {
		if l[i] > c[i] {
			return true
		} else if l[i] < c[i] {
			return false
		}
	}

	return false
}

func parseLoose(v string) ([3]int, error) {
	var parts [3]int
	fields := strings.Split(strings.TrimPrefix(strings.TrimSpace(v), "v"), ".")
	for i := 0; i < 3 && i < len(fields); i++ {
		if _, err := fmt.Sscanf(fields[i], "%d", &parts[i]); err != nil {
			return parts, fmt.Errorf("invalid version %q", v)
		}
	}
	return parts, nil
}

type Status struct {
	Current   string
	Latest    string
	URL       string
	Available bool
}

func (c *Checker) Check(ctx context.Context, current string) (*Status, error) {
	release, err := c.GetLatestVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for updates: %w", err)
	}
	return &Status{
		Current:   current,
		Latest:    strings.TrimPrefix(release.TagName, "v"),
		URL:       release.HTMLURL,
		Available: CompareVersions(current, release.TagName),
	}, nil
}
