package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/psantana5/calltimer/internal/tutorial"
)

var lessonCmd = &cobra.Command{
	Use:   "lesson [number]",
	Short: "Walk through the decorator tutorial",
	Long:  `Run every lesson of the decorator walkthrough in order, or a single lesson by its number.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLesson,
}

func init() {
	rootCmd.AddCommand(lessonCmd)
}

func runLesson(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	a, err := newApp(cmd.Context(), cfg, out, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	lessons := tutorial.Lessons()
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > len(lessons) {
			return fmt.Errorf("lesson must be a number between 1 and %d, got %q", len(lessons), args[0])
		}
		lessons = lessons[n-1 : n]
	}

	for _, l := range lessons {
		if err := l.Run(cmd.Context(), out, a.catalog); err != nil {
			return err
		}
	}
	return nil
}
