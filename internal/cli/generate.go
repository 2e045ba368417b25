package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/crunch/internal/config"
	"github.com/roach88/crunch/internal/field"
	"github.com/roach88/crunch/internal/generate"
	"github.com/roach88/crunch/internal/product"
	"github.com/roach88/crunch/internal/progress"
	"github.com/roach88/crunch/internal/sink"
)

// Sink kinds accepted by --sink.
const (
	SinkFile   = "file"
	SinkSQLite = "sqlite"
	SinkStream = "stream" // implied by -o -
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Config   string // field document
	Output   string // destination, "-" for stdout
	Progress bool
	Workers  int
	Chunk    uint64
	Sink     string // "" picks by output extension
}

// GenerateSummary describes a finished run.
type GenerateSummary struct {
	Total      uint64 `json:"total"`
	Written    uint64 `json:"written"`
	Output     string `json:"output"`
	Sink       string `json:"sink"`
	RunID      string `json:"run_id,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

func (s GenerateSummary) String() string {
	msg := fmt.Sprintf("✓ Wrote %d word(s) to %s in %dms", s.Written, s.Output, s.DurationMs)
	if s.RunID != "" {
		msg += fmt.Sprintf(" (run %s)", s.RunID)
	}
	return msg
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}
	env := newFlagEnv()

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write every combination of the configured fields",
		Long: `Write every combination of the fields in a config document.

Words are written one per line. File outputs are written to a temporary
file and renamed into place only when every word was written; outputs
ending in .db, .sqlite or .sqlite3 (or --sink sqlite) are recorded in a
SQLite database together with a run ledger.

--workers, --chunk, --sink and --progress default to CRUNCH_WORKERS,
CRUNCH_CHUNK, CRUNCH_SINK and CRUNCH_PROGRESS when set.

Exit codes:
  0 - All words written
  1 - Writing failed or the run was interrupted
  2 - The config could not be used (bad pattern, empty field, ...)

Examples:
  crunch generate -c words.yaml -o words.txt
  crunch generate -c words.cue -o - | head
  crunch generate -c words.yaml -o runs.db -p --workers 8`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Workers = env.GetInt("workers")
			opts.Chunk = env.GetUint64("chunk")
			opts.Sink = env.GetString("sink")
			opts.Progress = env.GetBool("progress")
			return runGenerate(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "field document (.yaml, .json or .cue)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output path, - for stdout")
	cmd.Flags().BoolVarP(&opts.Progress, "progress", "p", false, "show a progress bar on stderr")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "concurrent workers (default GOMAXPROCS)")
	cmd.Flags().Uint64Var(&opts.Chunk, "chunk", generate.DefaultChunkSize, "combinations per work unit")
	cmd.Flags().StringVar(&opts.Sink, "sink", "", "sink kind (file|sqlite), default by output extension")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("output")
	bindEnvFlags(env, cmd, "workers", "chunk", "sink", "progress")

	return cmd
}

func runGenerate(opts *GenerateOptions, cmd *cobra.Command) error {
	toStdout := opts.Output == "-"

	// Words own stdout when streaming; everything else moves to stderr.
	out := cmd.OutOrStdout()
	if toStdout {
		out = cmd.ErrOrStderr()
	}
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	kind, err := sinkKind(opts)
	if err != nil {
		return fail(formatter, err)
	}

	cfg, eng, err := loadEngine(opts.Config)
	if err != nil {
		return fail(formatter, err)
	}
	formatter.VerboseLog("Loaded %d field(s) from %s", eng.Fields(), cfg.Path)

	if opts.Format != FormatJSON {
		fmt.Fprintf(out, "Generating %d different permutations\n", eng.Total())
	}

	s, runID, err := openSink(kind, opts.Output, cfg, eng, cmd.OutOrStdout())
	if err != nil {
		return fail(formatter, &generate.SinkWriteError{Op: "open", Err: err})
	}
	logger.Debug("sink opened", "kind", kind, "output", opts.Output, "run_id", runID)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	genOpts := generate.Options{
		Workers:   opts.Workers,
		ChunkSize: opts.Chunk,
		Logger:    logger,
	}
	if opts.Progress {
		genOpts.Progress = progress.New(cmd.ErrOrStderr(), eng.Total())
	}

	res, err := generate.Run(ctx, eng, s, genOpts)
	if err != nil {
		return fail(formatter, err)
	}

	summary := GenerateSummary{
		Total:      res.Total,
		Written:    res.Written,
		Output:     opts.Output,
		Sink:       kind,
		RunID:      runID,
		DurationMs: res.Duration.Milliseconds(),
	}
	if toStdout {
		summary.Output = "stdout"
	}
	return formatter.Success(summary)
}

// loadEngine runs the config through field parsing and product
// construction. Nothing is opened for writing until this succeeds.
func loadEngine(path string) (*config.File, *product.Engine, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	set, err := field.NewParser(field.Options{Normalize: cfg.Normalize}).ParseAll(cfg.Parts)
	if err != nil {
		return nil, nil, err
	}
	eng, err := product.New(set)
	if err != nil {
		return nil, nil, err
	}
	return cfg, eng, nil
}

// sinkKind resolves --sink, falling back to the output extension.
func sinkKind(opts *GenerateOptions) (string, error) {
	switch opts.Sink {
	case "", SinkFile, SinkSQLite:
	default:
		return "", NewExitError(ExitCommandError, fmt.Sprintf("unknown sink %q (want file or sqlite)", opts.Sink))
	}

	if opts.Output == "-" {
		if opts.Sink == SinkSQLite {
			return "", NewExitError(ExitCommandError, "the sqlite sink cannot write to stdout")
		}
		return SinkStream, nil
	}
	if opts.Sink != "" {
		return opts.Sink, nil
	}

	switch strings.ToLower(filepath.Ext(opts.Output)) {
	case ".db", ".sqlite", ".sqlite3":
		return SinkSQLite, nil
	}
	return SinkFile, nil
}

// openSink creates the sink for kind. The run ID is empty for text outputs.
func openSink(kind, output string, cfg *config.File, eng *product.Engine, stdout io.Writer) (sink.Sink, string, error) {
	switch kind {
	case SinkStream:
		return sink.NewStream(stdout), "", nil
	case SinkSQLite:
		db, err := sink.OpenSQLite(output, sink.RunMeta{
			ConfigDigest: config.Digest(cfg),
			Total:        eng.Total(),
		})
		if err != nil {
			return nil, "", err
		}
		return db, db.RunID(), nil
	}
	f, err := sink.NewFile(output)
	if err != nil {
		return nil, "", err
	}
	return f, "", nil
}
