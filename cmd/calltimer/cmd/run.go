package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/psantana5/calltimer/pkg/calltimer"
)

var runCmd = &cobra.Command{
	Use:   "run <function> [args...]",
	Short: "Call an example function through the timer",
	Long: `Call one of the example functions through the timing decorator. Arguments
are positional ("1 3") or named ("a=1 b=3"); integers are passed as ints,
anything else as floats or strings.

The "Run time:" line is printed for every successful call, followed by the
result. Failures print no timing line and return the function's error.`,
	Example: `  calltimer run add 1 3
  calltimer run add_more 1 3 4 6
  calltimer run divide a=9 b=3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

type runResult struct {
	Function string         `json:"function"`
	Args     []any          `json:"args,omitempty"`
	Named    map[string]any `json:"named,omitempty"`
	Result   any            `json:"result"`
	Seconds  float64        `json:"duration_seconds"`
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// JSON output keeps stdout parseable by moving the timing line aside
	lines := cmd.OutOrStdout()
	if IsJSONOutput() {
		lines = cmd.ErrOrStderr()
	}

	a, err := newApp(ctx, cfg, lines, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	entry, err := a.catalog.Get(args[0])
	if err != nil {
		return err
	}
	callArgs := parseArgs(args[1:])

	res, err := entry.Timed.Call(ctx, callArgs)
	if err != nil {
		return fmt.Errorf("%s failed: %w", args[0], err)
	}

	if !IsJSONOutput() {
		fmt.Fprintln(cmd.OutOrStdout(), res)
		return nil
	}

	out := runResult{
		Function: entry.Timed.Metadata().Name,
		Args:     callArgs.Positional,
		Named:    callArgs.Named,
		Result:   res,
	}
	if st, ok := a.stats.Get(out.Function); ok {
		out.Seconds = st.Total.Seconds()
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// parseArgs turns command-line words into call arguments. "k=v" is named,
// everything else positional.
func parseArgs(words []string) calltimer.Args {
	var args calltimer.Args
	for _, w := range words {
		if name, value, ok := strings.Cut(w, "="); ok && name != "" {
			args = args.With(name, parseValue(value))
			continue
		}
		args.Positional = append(args.Positional, parseValue(w))
	}
	return args
}

func parseValue(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
