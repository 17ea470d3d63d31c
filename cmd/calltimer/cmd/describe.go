package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/psantana5/calltimer/internal/tutorial"
	"github.com/psantana5/calltimer/pkg/calltimer"
)

var describeCmd = &cobra.Command{
	Use:   "describe [function]",
	Short: "Show the identity each form of a function reports",
	Long: `Compare what introspection sees for the raw function, the timed wrapper
and a naive wrapper that does not copy metadata. The timed wrapper reports the
same name, signature and documentation as the raw function.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDescribe,
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

type identity struct {
	Function string             `json:"function"`
	Form     string             `json:"form"`
	Metadata calltimer.Metadata `json:"metadata"`
}

func runDescribe(cmd *cobra.Command, args []string) error {
	// Describing never calls anything, so no reporter output is needed
	a, err := newApp(cmd.Context(), cfg, nil, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	keys := a.catalog.Keys()
	if len(args) == 1 {
		keys = args
	}

	var rows []identity
	for _, key := range keys {
		e, err := a.catalog.Get(key)
		if err != nil {
			return err
		}
		rows = append(rows, identities(e)...)
	}

	if IsJSONOutput() {
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Function", "Form", "Name", "Signature", "Doc")
	for _, r := range rows {
		table.Append(r.Function, r.Form, r.Metadata.Name, r.Metadata.Signature, firstLine(r.Metadata.Doc))
	}
	table.Render()
	return nil
}

func identities(e tutorial.Entry) []identity {
	return []identity{
		{Function: e.Key, Form: "raw", Metadata: e.Raw.Metadata()},
		{Function: e.Key, Form: "timed", Metadata: e.Timed.Metadata()},
		{Function: e.Key, Form: "naive", Metadata: e.Naive.Metadata()},
	}
}

func firstLine(doc string) string {
	if doc == "" {
		return "-"
	}
	line, _, _ := strings.Cut(doc, "\n")
	return line
}
