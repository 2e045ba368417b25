package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/crunch/internal/field"
	"github.com/roach88/crunch/internal/pattern"
)

// ExpandOptions holds flags for the expand command.
type ExpandOptions struct {
	*RootOptions
	Limit     int
	Normalize string
	Literal   bool
}

// ExpandResult lists the candidates of a single field.
type ExpandResult struct {
	Field      string   `json:"field"`
	Candidates []string `json:"candidates"`
}

func (r ExpandResult) String() string {
	return strings.Join(r.Candidates, "\n")
}

// NewExpandCommand creates the expand command.
func NewExpandCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExpandOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "expand <pattern>",
		Short: "Print the candidates of a single field",
		Long: `Expand one field and print its candidates, one per line, in
generation order. The argument is a pattern unless --literal is given.

Examples:
  crunch expand '(19|20)[0-9]{2}'
  crunch expand --literal 'a\,b,c'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", pattern.DefaultMaxCandidates, "maximum number of candidates")
	cmd.Flags().StringVar(&opts.Normalize, "normalize", "", "Unicode normalization (nfc|nfd|nfkc|nfkd)")
	cmd.Flags().BoolVar(&opts.Literal, "literal", false, "treat the argument as a literal list")

	return cmd
}

func runExpand(opts *ExpandOptions, arg string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	form, err := field.ParseForm(opts.Normalize)
	if err != nil {
		return fail(formatter, err)
	}
	parser := field.NewParser(field.Options{
		Normalize: form,
		Pattern:   pattern.Options{MaxCandidates: opts.Limit},
	})

	var spec field.Spec = field.Pattern{Expr: arg}
	if opts.Literal {
		spec = field.Literal{Raw: arg}
	}
	list, err := parser.Parse(spec)
	if err != nil {
		return fail(formatter, err)
	}
	if !opts.Literal && opts.Verbose {
		if root, err := pattern.Parse(arg); err == nil {
			formatter.VerboseLog("Pattern %s", root)
		}
	}
	formatter.VerboseLog("%d candidate(s)", len(list))

	if opts.Format != FormatJSON && len(list) == 0 {
		return nil
	}
	if err := formatter.Success(ExpandResult{Field: arg, Candidates: list}); err != nil {
		return fail(formatter, fmt.Errorf("writing candidates: %w", err))
	}
	return nil
}
