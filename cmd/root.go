// Package cmd builds the parcus command line from the registries and runs
// the selected command.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/theokoles7/parcus/pkg/catalog"
	"github.com/theokoles7/parcus/pkg/configuration"
	"github.com/theokoles7/parcus/pkg/logging"
	"github.com/theokoles7/parcus/pkg/meta"
	"github.com/theokoles7/parcus/pkg/registration"
)

const (
	CommandTitle = "parcus-command"
	CommandDest  = "parcus_command"
)

var log = logging.Get(meta.Title)

// NewRootCommand returns the parcus command with one sub-command per entry
// of root.Commands, nested as deep as their configs select.
func NewRootCommand(root *registration.Registries) (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:   meta.Title,
		Short: "Token budget experiments for language models",
		Long:  meta.Description,
		Annotations: map[string]string{
			configuration.AnnotationDest:  CommandDest,
			configuration.AnnotationGroup: CommandTitle,
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: configureLogging,
	}
	rootCmd.AddGroup(&cobra.Group{ID: CommandTitle, Title: "Parcus command being executed:"})

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Config file path (default: config/config.yaml)")
	flags.String("logging-level", "INFO", "Minimum logging level (DEBUG < INFO < WARNING < ERROR < CRITICAL)")
	flags.String("logging-path", "logs", "Path at which logs will be written")
	flags.BoolP("debug", "v", false, "Set logging level to DEBUG")

	if err := root.Commands.RegisterConfigurations(rootCmd); err != nil {
		return nil, err
	}
	bindDispatch(rootCmd, root.Commands)
	return rootCmd, nil
}

func configureLogging(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	level, _ := flags.GetString("logging-level")
	path, _ := flags.GetString("logging-path")
	debug, _ := flags.GetBool("debug")

	if err := logging.Configure(logging.Options{Level: level, Path: path, Debug: debug}); err != nil {
		return err
	}
	log.Debugf("Parcus arguments: %v", registration.ParamsFromCommand(cmd))
	return nil
}

// bindDispatch makes every leaf of the tree dispatch the top-level command
// it belongs to with the parameters collected along its path.
func bindDispatch(cmd *cobra.Command, commands *registration.CommandRegistry) {
	for _, child := range cmd.Commands() {
		bindDispatch(child, commands)
	}
	if cmd.HasSubCommands() {
		cmd.Args = cobra.ArbitraryArgs
		cmd.RunE = requireSelection
		return
	}
	if cmd.Annotations[configuration.AnnotationEntry] == "" {
		return
	}

	cmd.Args = cobra.NoArgs
	cmd.RunE = func(c *cobra.Command, _ []string) error {
		params := registration.ParamsFromCommand(c)
		_, err := commands.Dispatch(c.Context(), params.String(CommandDest), params)
		return err
	}
}

// requireSelection prints help for a command that was given none of its
// sub-commands and rejects one it does not know.
func requireSelection(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: unknown %s %q for %q", configuration.ErrConfiguration,
			cmd.Annotations[configuration.AnnotationGroup], args[0], cmd.CommandPath())
	}
	return cmd.Help()
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer logging.Close()

	return Run(ctx, catalog.New(), os.Args[1:])
}

// Run builds the command line from root, executes args and returns the exit
// code. Panics raised by entry points and factories end here.
func Run(ctx context.Context, root *registration.Registries, args []string) (code int) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Logf(logrus.FatalLevel, "Unexpected error: %v", rec)
			log.Debugf("Stack trace:\n%s", debug.Stack())
			code = 1
		}
	}()

	rootCmd, err := NewRootCommand(root)
	if err != nil {
		log.Logf(logrus.FatalLevel, "Failed to build command line: %v", err)
		logChain(err)
		return 1
	}
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		report(err)
		return 1
	}

	log.Debug("Exiting...")
	return 0
}

func report(err error) {
	var notFound *registration.EntryNotFoundError
	switch {
	case errors.Is(err, context.Canceled):
		log.Warn("Interrupted")
	case errors.As(err, &notFound), errors.Is(err, configuration.ErrConfiguration):
		log.Errorf("%v", err)
	default:
		log.Logf(logrus.FatalLevel, "Unexpected error: %v", err)
	}
	logChain(err)
}

func logChain(err error) {
	for depth := 0; err != nil; depth++ {
		log.Debugf("Error chain [%d]: %T: %v", depth, err, err)
		err = errors.Unwrap(err)
	}
}
