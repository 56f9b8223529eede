package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/modellist/internal/engine"
	"github.com/roach88/modellist/internal/value"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	RunToken string
	MaxSteps int

	// TokenGenerator overrides the run token generator (for testing).
	// If nil, the engine default is used.
	TokenGenerator engine.RunTokenGenerator
}

// RunReport is the outcome of one script run.
type RunReport struct {
	Script   string         `json:"script"`
	RunToken string         `json:"run_token"`
	Items    []any          `json:"items"`
	Length   int            `json:"length"`
	Trace    []value.Object `json:"trace"`
	Error    string         `json:"error,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Apply a script to a list and print the trace",
		Long: `Apply every step of a YAML script to one list.

The run stops at the first failing step. The final items and the trace of
every applied step are printed either way.

Exit codes:
  0 - every step applied
  1 - a step failed
  2 - the script could not be loaded

Example:
  modellist run ./cart.yaml
  modellist run ./cart.yaml --run-token demo --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunToken, "run-token", "", "pin the run token")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", engine.DefaultMaxSteps, "maximum steps per run")

	return cmd
}

func runScript(opts *RunOptions, path string, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	formatter := newFormatter(opts.RootOptions, cmd)

	script, err := engine.LoadScript(path)
	if err != nil {
		_ = formatter.Error(ErrCodeDecode, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load script", err)
	}
	if opts.RunToken != "" {
		script.RunToken = opts.RunToken
	}
	logger.Debug("script loaded", "path", path, "name", script.Name, "steps", len(script.Steps))

	engineOpts := []engine.EngineOption{
		engine.WithLogger(logger),
		engine.WithMaxSteps(opts.MaxSteps),
	}
	if opts.TokenGenerator != nil {
		engineOpts = append(engineOpts, engine.WithTokenGenerator(opts.TokenGenerator))
	}
	eng := engine.New(engineOpts...)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, execErr := eng.Execute(ctx, script)
	if errors.Is(execErr, context.Canceled) || errors.Is(execErr, context.DeadlineExceeded) {
		return WrapExitError(ExitCommandError, "run interrupted", execErr)
	}

	report := RunReport{
		Script:   script.Name,
		RunToken: run.Token,
		Items:    run.Items(),
		Length:   run.List.Len(),
		Trace:    make([]value.Object, len(run.Trace)),
	}
	for i, ev := range run.Trace {
		report.Trace[i] = ev.ToMap(true)
	}
	if execErr != nil {
		report.Error = execErr.Error()
	}

	if opts.Format == "json" {
		if execErr != nil {
			if err := formatter.Error(ErrCodeStep, execErr.Error(), report); err != nil {
				return err
			}
		} else if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		writeRunText(cmd.OutOrStdout(), report)
	}

	if execErr != nil {
		return WrapExitError(ExitFailure, "script failed", execErr)
	}
	return nil
}

func writeRunText(w io.Writer, report RunReport) {
	fmt.Fprintf(w, "run %s (%s)\n", report.RunToken, report.Script)
	for _, ev := range report.Trace {
		fmt.Fprintf(w, "  [%d] %s", ev["seq"], ev["op"])
		if args, ok := ev["args"]; ok {
			fmt.Fprintf(w, " %s", Canonical(args))
		}
		if code, ok := ev["error"]; ok {
			fmt.Fprintf(w, " !%s\n", code)
			continue
		}
		if result, ok := ev["result"]; ok {
			fmt.Fprintf(w, " -> %s", Canonical(result))
		}
		fmt.Fprintf(w, " (length %d)\n", ev["length"])
	}
	fmt.Fprintf(w, "items: %s\n", Canonical(report.Items))
	fmt.Fprintf(w, "length: %d\n", report.Length)
	if report.Error != "" {
		fmt.Fprintf(w, "✗ %s\n", report.Error)
	}
}
