package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// CountOptions holds flags for the count command.
type CountOptions struct {
	*RootOptions
	Config string
}

// CountResult reports the size of the index space.
type CountResult struct {
	Total  uint64 `json:"total"`
	Fields []int  `json:"fields"`
}

func (r CountResult) String() string {
	sizes := make([]string, len(r.Fields))
	for i, n := range r.Fields {
		sizes[i] = fmt.Sprint(n)
	}
	return fmt.Sprintf("%d (%s)", r.Total, strings.Join(sizes, " x "))
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CountOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Print how many words a config would generate",
		Long: `Parse and expand every field of a config document and print the
number of combinations, without writing anything.

Example:
  crunch count -c words.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "field document (.yaml, .json or .cue)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runCount(opts *CountOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	_, eng, err := loadEngine(opts.Config)
	if err != nil {
		return fail(formatter, err)
	}
	return formatter.Success(CountResult{Total: eng.Total(), Fields: eng.Sizes()})
}
