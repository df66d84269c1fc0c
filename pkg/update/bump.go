package update

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

const (
	Major = "major"
	Minor = "minor"
	Patch = "patch"
)

var versionLine = regexp.MustCompile(`Version(\s*)=(\s*)"(\d+)\.(\d+)\.(\d+)"`)

// Bump increments part of a major.minor.patch version and resets the parts
// after it.
func Bump(version, part string) (string, error) {
	fields := strings.Split(strings.TrimPrefix(version, "v"), ".")
	if len(fields) != 3 {
		return "", fmt.Errorf("invalid version %q", version)
	}
	var n [3]int
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil || v < 0 {
			return "", fmt.Errorf("invalid version %q", version)
		}
		n[i] = v
	}

	switch part {
	case Major:
		n = [3]int{n[0] + 1, 0, 0}
	case Minor:
		n = [3]int{n[0], n[1] + 1, 0}
	case Patch:
		n[2]++
	default:
		return "", fmt.Errorf("invalid bump type %q", part)
	}
	return fmt.Sprintf("%d.%d.%d", n[0], n[1], n[2]), nil
}

// BumpFile rewrites the first Version = "x.y.z" declaration in path and
// returns the old and new versions.
func BumpFile(path, part string) (string, string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("could not read %s: %w", path, err)
	}

	loc := versionLine.FindSubmatchIndex(source)
	if loc == nil {
		return "", "", fmt.Errorf("could not parse current version from %s", path)
	}
	m := versionLine.FindSubmatch(source)
	old := fmt.Sprintf("%s.%s.%s", m[3], m[4], m[5])

	next, err := Bump(old, part)
	if err != nil {
		return "", "", err
	}

	line := fmt.Sprintf(`Version%s=%s"%s"`, m[1], m[2], next)
	updated := make([]byte, 0, len(source)+len(line))
	updated = append(updated, source[:loc[0]]...)
	updated = append(updated, line...)
	updated = append(updated, source[loc[1]:]...)

	info, err := os.Stat(path)
	if err != nil {
		return "", "", err
	}
	if err := os.WriteFile(path, updated, info.Mode().Perm()); err != nil {
		return "", "", fmt.Errorf("could not write %s: %w", path, err)
	}
	return old, next, nil
}

// Runner executes an external command in dir.
type Runner func(ctx context.Context, dir, name string, args ...string) error

func ExecRunner(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// TagRelease stages every change, commits it as "v<version> <message>" and
// tags the commit v<version>.
func TagRelease(ctx context.Context, run Runner, dir, version, message string) error {
	tag := "v" + version
	commit := strings.TrimSpace(tag + " " + message)

	steps := [][]string{
		{"add", "."},
		{"commit", "-m", commit},
		{"tag", tag, "-m", commit},
	}
	for _, args := range steps {
		if err := run(ctx, dir, "git", args...); err != nil {
			return fmt.Errorf("failed to create git tag %s: %w", tag, err)
		}
	}
	return nil
}
