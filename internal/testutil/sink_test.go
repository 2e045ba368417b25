package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySink_Records(t *testing.T) {
	m := NewMemorySink()
	require.NoError(t, m.Write(1, []byte("b")))
	require.NoError(t, m.Write(0, []byte("a")))

	assert.Equal(t, []string{"b", "a"}, m.Words())
	assert.Equal(t, []string{"a", "b"}, m.Sorted())
	assert.Equal(t, []uint64{1, 0}, m.Indices())
	assert.False(t, m.Duplicate())

	require.NoError(t, m.Write(1, []byte("b")))
	assert.True(t, m.Duplicate())
}

func TestMemorySink_CopiesWord(t *testing.T) {
	m := NewMemorySink()
	buf := []byte("abc")
	require.NoError(t, m.Write(0, buf))
	buf[0] = 'z'
	assert.Equal(t, []string{"abc"}, m.Words())
}

func TestMemorySink_CommitAbortCounts(t *testing.T) {
	m := NewMemorySink()
	require.NoError(t, m.Commit())
	require.NoError(t, m.Abort())
	require.NoError(t, m.Abort())
	assert.Equal(t, 1, m.Commits())
	assert.Equal(t, 2, m.Aborts())
}

func TestFailingSink_Budget(t *testing.T) {
	f := NewFailingSink(2)
	require.NoError(t, f.Write(0, []byte("a")))
	require.NoError(t, f.Write(1, []byte("b")))
	assert.ErrorIs(t, f.Write(2, []byte("c")), ErrInjected)
	assert.ErrorIs(t, f.Write(3, []byte("d")), ErrInjected)

	assert.Equal(t, []string{"a", "b"}, f.Words())
	assert.Equal(t, 2, f.Failures())
}

func TestFailingSink_ThreadSafe(t *testing.T) {
	f := NewFailingSink(50)
	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				_ = f.Write(uint64(g*10+i), []byte("w"))
			}
		}(g)
	}
	wg.Wait()

	assert.Len(t, f.Words(), 50)
	assert.Equal(t, 50, f.Failures())
}
