package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/roach88/crunch/internal/field"
	"github.com/roach88/crunch/internal/pattern"
	"github.com/roach88/crunch/internal/product"
	"github.com/roach88/crunch/internal/sink"
	"github.com/roach88/crunch/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newEngine(t *testing.T, set field.Set) *product.Engine {
	t.Helper()
	eng, err := product.New(set)
	require.NoError(t, err)
	return eng
}

func TestRun_TwoFieldPipeline(t *testing.T) {
	eng := newEngine(t, field.Set{{"x", "y"}, {"1", "2", "3"}})
	mem := testutil.NewMemorySink()

	res, err := Run(context.Background(), eng, mem, Options{Workers: 4, ChunkSize: 1})
	require.NoError(t, err)

	assert.Equal(t, uint64(6), res.Total)
	assert.Equal(t, uint64(6), res.Written)
	assert.Equal(t, []string{"x1", "x2", "x3", "y1", "y2", "y3"}, mem.Sorted())
	assert.Equal(t, 1, mem.Commits())
	assert.Zero(t, mem.Aborts())
}

func TestRun_ExactlyOnceAcrossWorkers(t *testing.T) {
	set := field.Set{
		{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
		{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"},
		{"-", "+", "="},
		{"A", "B", "C", "D", "E", "F", "G"},
	}
	eng := newEngine(t, set)

	for _, chunk := range []uint64{1, 7, 64, 10000} {
		mem := testutil.NewMemorySink()
		res, err := Run(context.Background(), eng, mem, Options{Workers: 8, ChunkSize: chunk})
		require.NoError(t, err)
		assert.Equal(t, eng.Total(), res.Written)
		assert.False(t, mem.Duplicate(), "chunk size %d", chunk)

		indices := mem.Indices()
		require.Len(t, indices, int(eng.Total()))
		sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
		for i, idx := range indices {
			require.Equal(t, uint64(i), idx)
		}

		// Each recorded word matches the decode of its index.
		words := mem.Words()
		for i, idx := range mem.Indices() {
			want := eng.AppendWord(nil, idx)
			require.Equal(t, string(want), words[i])
		}
	}
}

func TestRun_StreamSink(t *testing.T) {
	eng := newEngine(t, field.Set{{"x", "y"}, {"1", "2", "3"}})
	var buf bytes.Buffer

	res, err := Run(context.Background(), eng, sink.NewStream(&buf), Options{Workers: 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(6), res.Written)

	// A single worker with one chunk emits in index order.
	assert.Equal(t, "x1\nx2\nx3\ny1\ny2\ny3\n", buf.String())
}

func TestRun_SinkFailureStopsRun(t *testing.T) {
	eng := newEngine(t, field.Set{
		{"a", "b", "c", "d", "e", "f", "g", "h"},
		{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"},
		{"x", "y", "z"},
	})

	for _, workers := range []int{1, 4, 16} {
		const budget = 17
		failing := testutil.NewFailingSink(budget)

		res, err := Run(context.Background(), eng, failing, Options{Workers: workers, ChunkSize: 5})
		require.Error(t, err)
		assert.True(t, IsSinkWriteError(err), "workers=%d: %v", workers, err)
		assert.ErrorIs(t, err, testutil.ErrInjected)

		var se *SinkWriteError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "write", se.Op)
		assert.Equal(t, ErrCodeSinkWriteFailed, se.ErrorCode())

		// The failure is latched under the sink lock: no write is attempted
		// after the first rejected one.
		assert.Equal(t, 1, failing.Failures(), "workers=%d", workers)
		assert.Len(t, failing.Words(), budget)
		assert.Equal(t, uint64(budget), res.Written)
		assert.Equal(t, 1, failing.Aborts())
		assert.Zero(t, failing.Commits())
	}
}

func TestRun_FailOnFirstWrite(t *testing.T) {
	eng := newEngine(t, field.Set{{"a", "b"}})
	failing := testutil.NewFailingSink(0)

	_, err := Run(context.Background(), eng, failing, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SINK_WRITE_FAILED")
	assert.Empty(t, failing.Words())
}

type commitFails struct {
	*testutil.MemorySink
}

func (commitFails) Commit() error { return testutil.ErrInjected }

func TestRun_CommitFailure(t *testing.T) {
	eng := newEngine(t, field.Set{{"a"}})

	mem := testutil.NewMemorySink()

	_, err := Run(context.Background(), eng, commitFails{mem}, Options{})
	require.Error(t, err)

	var se *SinkWriteError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "commit", se.Op)
	assert.Equal(t, 1, mem.Aborts(), "a failed commit is followed by an abort")
}

func TestRun_ContextCancelled(t *testing.T) {
	eng := newEngine(t, field.Set{{"a", "b"}, {"c", "d"}})
	mem := testutil.NewMemorySink()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, eng, mem, Options{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, mem.Words())
	assert.Equal(t, 1, mem.Aborts())
}

// slowSink blocks every write until released, so a test can cancel mid-run.
type slowSink struct {
	*testutil.MemorySink
	started chan struct{}
	once    sync.Once
	release chan struct{}
}

func (s *slowSink) Write(index uint64, word []byte) error {
	s.once.Do(func() { close(s.started) })
	<-s.release
	return s.MemorySink.Write(index, word)
}

func TestRun_CancelMidRun(t *testing.T) {
	eng := newEngine(t, field.Set{{"a", "b", "c", "d"}, {"1", "2", "3", "4"}})
	s := &slowSink{MemorySink: testutil.NewMemorySink(), started: make(chan struct{}), release: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := Run(ctx, eng, s, Options{Workers: 2, ChunkSize: 2})
		errc <- err
	}()

	<-s.started
	cancel()
	close(s.release)

	select {
	case err := <-errc:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancellation")
	}
	assert.Less(t, len(s.Words()), 16)
	assert.Equal(t, 1, s.Aborts())
}

type recordingReporter struct {
	mu       sync.Mutex
	updates  []uint64
	finished []uint64
}

func (r *recordingReporter) Update(n uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, n)
}

func (r *recordingReporter) Finish(n uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, n)
}

func TestRun_ProgressReporter(t *testing.T) {
	eng := newEngine(t, field.Set{{"a", "b", "c"}, {"1", "2", "3", "4", "5"}})
	rep := &recordingReporter{}

	_, err := Run(context.Background(), eng, testutil.NewMemorySink(), Options{
		Progress:         rep,
		ProgressInterval: time.Millisecond,
	})
	require.NoError(t, err)

	rep.mu.Lock()
	defer rep.mu.Unlock()
	assert.Equal(t, []uint64{15}, rep.finished)
	for i := 1; i < len(rep.updates); i++ {
		assert.GreaterOrEqual(t, rep.updates[i], rep.updates[i-1], "progress never goes backwards")
	}
}

func TestRun_ProgressFinishOnFailure(t *testing.T) {
	eng := newEngine(t, field.Set{{"a", "b", "c"}})
	rep := &recordingReporter{}

	_, err := Run(context.Background(), eng, testutil.NewFailingSink(1), Options{Progress: rep})
	require.Error(t, err)

	rep.mu.Lock()
	defer rep.mu.Unlock()
	assert.Equal(t, []uint64{1}, rep.finished)
}

func TestRun_EmptyFieldSetWritesOneEmptyWord(t *testing.T) {
	eng := newEngine(t, field.Set{})
	var buf bytes.Buffer

	res, err := Run(context.Background(), eng, sink.NewStream(&buf), Options{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Written)
	assert.Equal(t, "\n", buf.String())
}

func TestWorkUnits(t *testing.T) {
	eng := newEngine(t, field.Set{{"a", "b", "c", "d", "e"}, {"0", "1"}})

	tests := []struct {
		name    string
		workers int
		chunk   uint64
		want    []product.Range
	}{
		{"small space spread over workers", 4, 4096, []product.Range{{Start: 0, End: 3}, {Start: 3, End: 6}, {Start: 6, End: 8}, {Start: 8, End: 10}}},
		{"more workers than indices", 16, 4096, eng.Partition(10)},
		{"large space in chunks", 2, 3, []product.Range{{Start: 0, End: 3}, {Start: 3, End: 6}, {Start: 6, End: 9}, {Start: 9, End: 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{Workers: tt.workers, ChunkSize: tt.chunk}.withDefaults()
			got := slices.Collect(workUnits(eng, opts))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCounter(t *testing.T) {
	var c Counter
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Inc()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(5000), c.Load())
}

func TestOptions_Defaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Positive(t, o.Workers)
	assert.Equal(t, uint64(DefaultChunkSize), o.ChunkSize)
	assert.Equal(t, DefaultProgressInterval, o.ProgressInterval)
	assert.NotNil(t, o.Logger)
}

func TestSinkWriteError_Message(t *testing.T) {
	err := &SinkWriteError{Op: "write", Index: 42, Err: testutil.ErrInjected}
	assert.True(t, strings.HasPrefix(err.Error(), "SINK_WRITE_FAILED"))
	assert.Contains(t, err.Error(), "42")
}

func TestErrorCode(t *testing.T) {
	_, patternErr := pattern.Expand("a*")
	require.Error(t, patternErr)
	_, emptyErr := product.New(field.Set{{}})
	require.Error(t, emptyErr)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"pattern inside field", &field.Error{Field: 2, Message: "bad pattern", Err: patternErr}, string(pattern.ErrCodeUnboundedPattern)},
		{"bare field", &field.Error{Field: 1, Message: "nil spec"}, field.ErrCodeMalformedField},
		{"wrapped product error", fmt.Errorf("building engine: %w", emptyErr), product.ErrCodeEmptyField},
		{"sink", &SinkWriteError{Op: "commit", Err: testutil.ErrInjected}, ErrCodeSinkWriteFailed},
		{"cancelled", fmt.Errorf("run: %w", context.Canceled), ErrCodeInterrupted},
		{"uncoded", errors.New("boom"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}
