// Package bumpversion registers the bump-version command, which increments
// the version in pkg/meta and can commit and tag the release.
package bumpversion

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/theokoles7/parcus/pkg/configuration"
	"github.com/theokoles7/parcus/pkg/logging"
	"github.com/theokoles7/parcus/pkg/registration"
	"github.com/theokoles7/parcus/pkg/update"
)

const (
	ID          = "bump-version"
	DefaultFile = "pkg/meta/meta.go"
)

var log = logging.Get(ID)

type Config struct {
	configuration.Base
}

func NewConfig() *Config {
	return &Config{Base: configuration.Base{
		ParserID:   ID,
		ParserHelp: "Increment/update package version.",
	}}
}

func (c *Config) DefineFlags(fs *pflag.FlagSet) {
	fs.Bool(update.Major, false, "Incompatible API changes")
	fs.Bool(update.Minor, false, "Backward-compatible functionality additions/features")
	fs.Bool(update.Patch, false, "Backward-compatible bug fixes/security patches")
	fs.Bool("tag", false, "Commit all current changes and tag as release")
	fs.String("message", "Version bump", "Message indicating purpose of version bump")
	fs.String("file", DefaultFile, "Source file declaring the package version")
}

// Part returns the single version part selected by the flags.
func Part(params registration.Params) (string, error) {
	var parts []string
	for _, p := range []string{update.Major, update.Minor, update.Patch} {
		if params.Bool(p) {
			parts = append(parts, p)
		}
	}
	if len(parts) != 1 {
		return "", fmt.Errorf("%w: exactly one of --major, --minor or --patch is required", configuration.ErrConfiguration)
	}
	return parts[0], nil
}

func Register(root *registration.Registries) error {
	registration.RegisterCommand(root.Commands, ID, NewConfig(), "meta", "release")(EntryPoint(update.ExecRunner))
	return nil
}

func EntryPoint(run update.Runner) registration.EntryPoint {
	return func(ctx context.Context, params registration.Params) (any, error) {
		part, err := Part(params)
		if err != nil {
			return nil, err
		}

		file := params.String("file")
		if file == "" {
			file = DefaultFile
		}

		old, next, err := update.BumpFile(file, part)
		if err != nil {
			return nil, err
		}
		log.Infof("Current version: %s", old)
		log.Infof("Version successfully updated to v%s", next)

		if !params.Bool("tag") {
			return next, nil
		}

		dir := filepath.Dir(file)
		if err := update.TagRelease(ctx, run, dir, next, params.String("message")); err != nil {
			log.Warnf("%s was modified but may not be committed", file)
			return next, err
		}
		log.Infof("Successfully created Git tag: v%s", next)
		log.Info("Remember to push commit & tag to remote repository: git push && git push --tags")
		return next, nil
	}
}
