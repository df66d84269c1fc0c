// Package configuration describes the argument schema each registered
// command, dataset and model contributes to the command line.
package configuration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	AnnotationRegistry = "parcus.registry"
	AnnotationEntry    = "parcus.entry"
	AnnotationDest     = "parcus.dest"
	AnnotationGroup    = "parcus.group"
)

var ErrConfiguration = errors.New("configuration error")

type SubcommandNotConfiguredError struct {
	ParserID string
}

func (e *SubcommandNotConfiguredError) Error() string {
	return fmt.Sprintf("sub-command parameters not configured for %s config", e.ParserID)
}

func (e *SubcommandNotConfiguredError) Is(target error) bool { return target == ErrConfiguration }

type Config interface {
	Name() string
	Help() string
	DefineFlags(fs *pflag.FlagSet)
}

// Parent is a Config whose command selects a further sub-command, such as
// infer selecting a model and a model selecting a dataset.
type Parent interface {
	Config
	SubcommandTitle() string
	SubcommandHelp() string
	RegisterSubcommands(cmd *cobra.Command) error
}

// Provider is satisfied by registries that can attach their entries under a
// command.
type Provider interface {
	RegisterConfigurations(parent *cobra.Command) error
}

// Base carries the naming every config shares. Concrete configs embed it and
// add DefineFlags.
type Base struct {
	ParserID   string
	ParserHelp string
	Title      string
	TitleHelp  string
}

func (b Base) Name() string            { return b.ParserID }
func (b Base) Help() string            { return b.ParserHelp }
func (b Base) SubcommandTitle() string { return b.Title }
func (b Base) SubcommandHelp() string  { return b.TitleHelp }

// Dest converts a sub-command title into the parameter key that records the
// selected sub-command.
func Dest(title string) string {
	return strings.ReplaceAll(title, "-", "_")
}

func Attach(cfg Config, parent *cobra.Command) (*cobra.Command, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrConfiguration)
	}
	if cfg.Name() == "" {
		return nil, fmt.Errorf("%w: config has no parser id", ErrConfiguration)
	}

	cmd := &cobra.Command{
		Use:         cfg.Name(),
		Short:       cfg.Help(),
		Long:        cfg.Help(),
		Annotations: map[string]string{},
	}

	if p, ok := cfg.(Parent); ok {
		title := p.SubcommandTitle()
		if title == "" {
			return nil, &SubcommandNotConfiguredError{ParserID: cfg.Name()}
		}
		cfg.DefineFlags(cmd.PersistentFlags())
		cmd.Annotations[AnnotationDest] = Dest(title)
		cmd.Annotations[AnnotationGroup] = title
		cmd.AddGroup(&cobra.Group{ID: title, Title: p.SubcommandHelp() + ":"})
		if err := p.RegisterSubcommands(cmd); err != nil {
			return nil, err
		}
	} else {
		cfg.DefineFlags(cmd.Flags())
	}

	if parent != nil {
		parent.AddCommand(cmd)
	}
	return cmd, nil
}

// Parse parses args against cfg's own flags. Flags it does not define are
// returned as leftovers instead of failing.
func Parse(cfg Config, args []string) (*pflag.FlagSet, []string, error) {
	fs := pflag.NewFlagSet(cfg.Name(), pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	cfg.DefineFlags(fs)

	known := make([]string, 0, len(args))
	var leftover []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") || arg == "-" || arg == "--" {
			leftover = append(leftover, arg)
			continue
		}
		name := strings.TrimLeft(arg, "-")
		if eq := strings.Index(name, "="); eq >= 0 {
			name = name[:eq]
		}
		var f *pflag.Flag
		if strings.HasPrefix(arg, "--") {
			f = fs.Lookup(name)
		} else if len(name) == 1 {
			f = fs.ShorthandLookup(name)
		}
		if f == nil {
			leftover = append(leftover, arg)
			continue
		}
		known = append(known, arg)
		if !strings.Contains(arg, "=") && f.NoOptDefVal == "" && i+1 < len(args) {
			i++
			known = append(known, args[i])
		}
	}

	if err := fs.Parse(known); err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s arguments: %w", cfg.Name(), err)
	}
	return fs, leftover, nil
}

type InvalidChoiceError struct {
	Flag    string
	Value   string
	Allowed []string
}

func (e *InvalidChoiceError) Error() string {
	return fmt.Sprintf("invalid choice %q for --%s (choose from %s)", e.Value, e.Flag, strings.Join(e.Allowed, ", "))
}

func (e *InvalidChoiceError) Is(target error) bool { return target == ErrConfiguration }

// Choice checks that value is one of allowed.
func Choice(flag, value string, allowed ...string) error {
	for _, a := range allowed {
		if a == value {
			return nil
		}
	}
	return &InvalidChoiceError{Flag: flag, Value: value, Allowed: allowed}
}
