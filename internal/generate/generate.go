package generate

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/crunch/internal/product"
	"github.com/roach88/crunch/internal/sink"
)

// DefaultChunkSize is the number of indices handed to a worker per task.
const DefaultChunkSize = 4096

// DefaultProgressInterval is how often the reporter samples the counter.
const DefaultProgressInterval = 100 * time.Millisecond

// ProgressReporter renders progress. Update is called periodically from a
// single goroutine; Finish is called once when the run ends, successful or
// not.
type ProgressReporter interface {
	Update(written uint64)
	Finish(written uint64)
}

// Options configures Run.
type Options struct {
	// Workers bounds the number of concurrent workers.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int

	// ChunkSize is the number of indices per task. Zero means DefaultChunkSize.
	ChunkSize uint64

	// Progress, when non-nil, receives periodic progress updates.
	Progress ProgressReporter

	// ProgressInterval overrides DefaultProgressInterval.
	ProgressInterval time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.ChunkSize == 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = DefaultProgressInterval
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Result summarizes a run.
type Result struct {
	Total    uint64
	Written  uint64
	Duration time.Duration
}

// Counter counts emitted words. It only ever increases.
//
// Thread-safety: Counter is safe for concurrent use (atomic operations).
type Counter struct {
	n atomic.Uint64
}

// Inc records one emitted word and returns the new count.
func (c *Counter) Inc() uint64 {
	return c.n.Add(1)
}

// Load returns the current count.
func (c *Counter) Load() uint64 {
	return c.n.Load()
}

// Run writes every combination of eng to s and then commits s.
//
// On any failure, including cancellation of ctx, s is aborted and the error
// is returned; sink failures are reported as *SinkWriteError.
func Run(ctx context.Context, eng *product.Engine, s sink.Sink, opts Options) (Result, error) {
	opts = opts.withDefaults()
	start := time.Now()
	log := opts.Logger

	var counter Counter
	shared := &guardedSink{sink: s}

	log.Debug("generation starting",
		"total", eng.Total(),
		"workers", opts.Workers,
		"chunk_size", opts.ChunkSize,
	)

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	if opts.Progress != nil {
		g.Go(func() error {
			report(done, &counter, opts)
			return nil
		})
	}
	g.Go(func() error {
		defer close(done)
		return produce(gctx, eng, shared, &counter, opts)
	})

	err := g.Wait()
	result := Result{Total: eng.Total(), Written: counter.Load(), Duration: time.Since(start)}

	if err != nil {
		if abortErr := s.Abort(); abortErr != nil {
			log.Error("aborting sink", "error", abortErr)
		}
		log.Error("generation failed", "error", err, "written", result.Written, "total", result.Total)
		return result, err
	}

	if err := s.Commit(); err != nil {
		if abortErr := s.Abort(); abortErr != nil {
			log.Error("aborting sink", "error", abortErr)
		}
		log.Error("commit failed", "error", err, "written", result.Written)
		return result, &SinkWriteError{Op: "commit", Err: err}
	}

	log.Debug("generation finished", "written", result.Written, "duration", result.Duration)
	return result, nil
}

// produce feeds chunks to the worker pool until the index space is exhausted
// or the run is cancelled.
func produce(ctx context.Context, eng *product.Engine, shared *guardedSink, counter *Counter, opts Options) error {
	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(opts.Workers)

	for r := range workUnits(eng, opts) {
		if ctx.Err() != nil || shared.stopped() {
			break
		}
		p.Go(func(ctx context.Context) error {
			return work(ctx, eng, r, shared, counter)
		})
	}

	if err := p.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// workUnits cuts the index space into ChunkSize ranges. When that would
// leave workers idle the space is split evenly across them instead.
func workUnits(eng *product.Engine, opts Options) iter.Seq[product.Range] {
	if eng.Total()/uint64(opts.Workers) < opts.ChunkSize {
		return slices.Values(eng.Partition(opts.Workers))
	}
	return eng.Chunks(opts.ChunkSize)
}

// work writes every word in r. It returns nil when it stops because the run
// was cancelled; only the worker that hit the sink error reports it.
func work(ctx context.Context, eng *product.Engine, r product.Range, shared *guardedSink, counter *Counter) error {
	cur := eng.Cursor(r)
	buf := make([]byte, 0, 64)
	for cur.Next() {
		buf = cur.AppendWord(buf[:0])
		if err := shared.write(ctx, cur.Index(), buf); err != nil {
			if errors.Is(err, errStopped) {
				return nil
			}
			return err
		}
		counter.Inc()
	}
	return nil
}

// report samples counter until done is closed.
func report(done <-chan struct{}, counter *Counter, opts Options) {
	ticker := time.NewTicker(opts.ProgressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			opts.Progress.Finish(counter.Load())
			return
		case <-ticker.C:
			opts.Progress.Update(counter.Load())
		}
	}
}

var errStopped = errors.New("run stopped")

// guardedSink serializes access to a sink and latches the first failure.
type guardedSink struct {
	mu     sync.Mutex
	sink   sink.Sink
	failed atomic.Bool
}

func (g *guardedSink) write(ctx context.Context, index uint64, word []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failed.Load() || ctx.Err() != nil {
		return errStopped
	}
	if err := g.sink.Write(index, word); err != nil {
		g.failed.Store(true)
		return &SinkWriteError{Op: "write", Index: index, Err: err}
	}
	return nil
}

func (g *guardedSink) stopped() bool {
	return g.failed.Load()
}
