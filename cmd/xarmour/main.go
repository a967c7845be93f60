// Command xarmour splits armoured text read from standard input and passes
// each block to a command via its standard input.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/minfrin/xarmour"
	"github.com/minfrin/xarmour/internal/config"
	"github.com/minfrin/xarmour/internal/pipeline"
	"github.com/minfrin/xarmour/internal/runner"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// ExitError carries an exit status out of RunE without calling os.Exit.
type ExitError struct {
	Code  int
	Err   error
	Usage bool // print the help text to stderr after the diagnostic
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// run executes the CLI and returns the process exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := log.NewWithOptions(stderr, log.Options{Prefix: xarmour.Name})

	cmd := newRootCmd(logger, stdin, stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		return pipeline.ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			logger.Error(exitErr.Err.Error())
		}
		if exitErr.Usage {
			fmt.Fprint(stderr, helpText)
		}
		return exitErr.Code
	}
	logger.Error(err.Error())
	return pipeline.ExitFailure
}

type options struct {
	times      int
	configPath string
}

func newRootCmd(logger *log.Logger, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "xarmour [-t times] [-v] [-h] [--] command [options]",
		Short:         "Split armoured data and process each one through a command.",
		Long:          helpText,
		Version:       xarmour.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, logger, opts, args, stdout, stderr)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetHelpTemplate("{{.Long}}")
	cmd.SetVersionTemplate(xarmour.Name + " {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &ExitError{Code: pipeline.ExitFailure, Err: err, Usage: true}
	})

	flags := cmd.Flags()
	// Everything after the first positional argument belongs to the command.
	flags.SetInterspersed(false)
	flags.IntVarP(&opts.times, "times", "t", 0, "number of times command must be successful")
	flags.StringVar(&opts.configPath, "config", "", "configuration file")

	return cmd
}

func execute(cmd *cobra.Command, logger *log.Logger, opts options, args []string, stdout, stderr io.Writer) error {
	if cmd.Flags().Changed("times") && opts.times < 1 {
		return &ExitError{Code: pipeline.ExitFailure, Err: errors.New("count must be bigger than 0"), Usage: true}
	}
	if len(args) == 0 {
		return &ExitError{Code: pipeline.ExitFailure, Err: errors.New("no command specified"), Usage: true}
	}

	loaded, err := config.Load(opts.configPath)
	if err != nil {
		return &ExitError{Code: pipeline.ExitFailure, Err: fmt.Errorf("loading config: %w", err)}
	}
	cfg := loaded.Config

	level, err := log.ParseLevel(cfg.LogLevel())
	if err != nil {
		return &ExitError{Code: pipeline.ExitFailure, Err: fmt.Errorf("log level: %w", err)}
	}
	logger.SetLevel(level)
	if loaded.Path != "" {
		logger.Debug("loaded config", "path", loaded.Path)
	}

	eng := &pipeline.Engine{
		Runner: &runner.Runner{
			Argv:   args,
			Stdout: stdout,
			Stderr: stderr,
		},
		Times:    opts.times,
		MaxLine:  cfg.MaxLine(),
		MaxLabel: cfg.MaxLabel(),
		Logger:   logger,
	}

	// Input is streamed, never buffered whole. Errors are already logged.
	rr, _ := eng.Run(cmd.Context(), cmd.InOrStdin())
	if rr.ExitCode != pipeline.ExitSuccess {
		return &ExitError{Code: rr.ExitCode}
	}
	return nil
}
