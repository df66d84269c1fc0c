package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		current, latest string
		newer           bool
	}{
		{"0.0.0", "v0.0.1", true},
		{"1.2.3", "v1.2.3", false},
		{"v1.10.0", "1.9.9", false},
		{"1.9", "1.10.0", true},
		{"2.0.0", "1.99.99", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.newer, CompareVersions(tt.current, tt.latest), "%s -> %s", tt.current, tt.latest)
	}
}

func TestCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))
		w.Write([]byte(`{"tag_name":"v0.2.0","html_url":"https://github.com/theokoles7/parcus/releases/tag/v0.2.0"}`))
	}))
	defer srv.Close()

	status, err := NewChecker(srv.URL).Check(context.Background(), "0.1.4")
	require.NoError(t, err)
	assert.True(t, status.Available)
	assert.Equal(t, "0.2.0", status.Latest)
	assert.Contains(t, status.URL, "v0.2.0")
}

func TestCheckFailsOnStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewChecker(srv.URL).Check(context.Background(), "0.1.0")
	assert.ErrorContains(t, err, "status 404")
}

func TestBump(t *testing.T) {
	tests := []struct {
		part, want string
	}{
		{Major, "2.0.0"},
		{Minor, "1.5.0"},
		{Patch, "1.4.8"},
	}
	for _, tt := range tests {
		got, err := Bump("1.4.7", tt.part)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := Bump("1.4.7", "build")
	assert.Error(t, err)
	_, err = Bump("1.4", Patch)
	assert.Error(t, err)
}

func TestBumpFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.go")
	source := "package meta\n\nvar (\n\tVersion   = \"0.3.9\"\n\tCommit    = \"none\"\n)\n"
	require.NoError(t, os.WriteFile(path, []byte(source), 0644))

	old, next, err := BumpFile(path, Minor)
	require.NoError(t, err)
	assert.Equal(t, "0.3.9", old)
	assert.Equal(t, "0.4.0", next)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "package meta\n\nvar (\n\tVersion   = \"0.4.0\"\n\tCommit    = \"none\"\n)\n", string(body))
}

func TestBumpFileWithoutVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.go")
	require.NoError(t, os.WriteFile(path, []byte("package meta\n"), 0644))

	_, _, err := BumpFile(path, Patch)
	assert.ErrorContains(t, err, "could not parse current version")
}

func TestTagRelease(t *testing.T) {
	var calls [][]string
	run := func(_ context.Context, dir, name string, args ...string) error {
		assert.Equal(t, "/repo", dir)
		calls = append(calls, append([]string{name}, args...))
		return nil
	}

	require.NoError(t, TagRelease(context.Background(), run, "/repo", "1.0.0", "Version bump"))
	assert.Equal(t, [][]string{
		{"git", "add", "."},
		{"git", "commit", "-m", "v1.0.0 Version bump"},
		{"git", "tag", "v1.0.0", "-m", "v1.0.0 Version bump"},
	}, calls)
}
