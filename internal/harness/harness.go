package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/roach88/crunch/internal/config"
	"github.com/roach88/crunch/internal/field"
	"github.com/roach88/crunch/internal/generate"
	"github.com/roach88/crunch/internal/product"
	"github.com/roach88/crunch/internal/testutil"
)

// DefaultWorkers is used when a scenario does not set workers.
const DefaultWorkers = 4

// chunkSize is small so that even tiny scenarios are split across workers.
const chunkSize = 3

// Result is the outcome of a scenario run.
type Result struct {
	// Total is the size of the index space, 0 when the run failed before
	// enumeration.
	Total uint64

	// Words holds the emitted words in index order.
	Words []string

	// Emitted is the number of Write calls the sink received.
	Emitted int

	// Duplicate reports whether any index was written twice.
	Duplicate bool

	// Err is the generation error, if any. Expected failures are reported
	// here rather than by Run.
	Err error

	// Code is the error code of Err.
	Code string

	Duration   time.Duration
	Assertions []AssertionResult
}

// AssertionResult records the outcome of one assertion.
type AssertionResult struct {
	Assertion Assertion
	Passed    bool
	Message   string
}

// Passed reports whether every assertion held.
func (r *Result) Passed() bool {
	for _, a := range r.Assertions {
		if !a.Passed {
			return false
		}
	}
	return true
}

// Run executes a scenario and evaluates its assertions.
//
// Generation failures are part of the result. Run only returns an error
// when the scenario itself is unusable.
func Run(s *Scenario) (*Result, error) {
	if err := validateScenario(s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	workers := s.Workers
	if workers == 0 {
		workers = DefaultWorkers
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	start := time.Now()
	result := &Result{}
	mem := testutil.NewMemorySink()
	result.Err = generateInto(s, workers, logger, mem, result)
	result.Duration = time.Since(start)

	result.Words = indexOrder(mem)
	result.Emitted = len(result.Words)
	result.Duplicate = mem.Duplicate()
	if result.Err != nil {
		result.Code = generate.ErrorCode(result.Err)
	}

	for _, a := range s.Assertions {
		result.Assertions = append(result.Assertions, evaluate(a, result))
	}
	return result, nil
}

func generateInto(s *Scenario, workers int, logger *slog.Logger, mem *testutil.MemorySink, result *Result) error {
	format := config.FormatYAML
	if s.Format == "cue" {
		format = config.FormatCUE
	}
	cfg, err := config.Parse([]byte(s.Config), format, s.Name+"."+format.String())
	if err != nil {
		return err
	}

	set, err := field.NewParser(field.Options{Normalize: cfg.Normalize}).ParseAll(cfg.Parts)
	if err != nil {
		return err
	}

	eng, err := product.New(set)
	if err != nil {
		return err
	}
	result.Total = eng.Total()

	_, err = generate.Run(context.Background(), eng, mem, generate.Options{
		Workers:   workers,
		ChunkSize: chunkSize,
		Logger:    logger,
	})
	return err
}

// indexOrder returns the sink's words sorted by combination index.
func indexOrder(mem *testutil.MemorySink) []string {
	words := mem.Words()
	indices := mem.Indices()
	order := make([]int, len(words))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return indices[order[a]] < indices[order[b]]
	})
	out := make([]string, len(words))
	for i, j := range order {
		out[i] = words[j]
	}
	return out
}

func evaluate(a Assertion, r *Result) AssertionResult {
	res := AssertionResult{Assertion: a, Passed: true}
	fail := func(format string, args ...any) AssertionResult {
		res.Passed = false
		res.Message = fmt.Sprintf(format, args...)
		return res
	}

	switch a.Type {
	case AssertTotal:
		if r.Err != nil {
			return fail("run failed: %v", r.Err)
		}
		if r.Total != a.Count {
			return fail("total is %d, expected %d", r.Total, a.Count)
		}
		if uint64(r.Emitted) != a.Count {
			return fail("emitted %d words, expected %d", r.Emitted, a.Count)
		}
		if r.Duplicate {
			return fail("an index was emitted more than once")
		}

	case AssertContains:
		for _, w := range a.Words {
			if !slices.Contains(r.Words, w) {
				return fail("word %q was not emitted", w)
			}
		}

	case AssertOrder:
		last := -1
		for _, w := range a.Words {
			pos := slices.Index(r.Words, w)
			if pos < 0 {
				return fail("word %q was not emitted", w)
			}
			if pos <= last {
				return fail("word %q appears out of order", w)
			}
			last = pos
		}

	case AssertError:
		if r.Err == nil {
			return fail("expected error %s, run succeeded", a.Code)
		}
		if r.Code != a.Code {
			return fail("error code is %s, expected %s (%v)", r.Code, a.Code, r.Err)
		}
	}
	return res
}
