package sink

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File writes words to a temporary file next to the destination and
// renames it into place on Commit, so a failed run never leaves a partial
// wordlist at the destination path.
type File struct {
	dest string
	tmp  *os.File
	bw   *bufio.Writer
	done bool
}

var _ Sink = (*File)(nil)

// NewFile creates the temporary file for dest. The destination directory
// must exist.
func NewFile(dest string) (*File, error) {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".crunch-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	_ = os.Chmod(tmp.Name(), 0o644)
	return &File{dest: dest, tmp: tmp, bw: bufio.NewWriterSize(tmp, defaultBufSize)}, nil
}

// Write buffers word followed by a newline.
func (f *File) Write(_ uint64, word []byte) error {
	if _, err := f.bw.Write(word); err != nil {
		return err
	}
	return f.bw.WriteByte('\n')
}

// Commit flushes, syncs and renames the temporary file to the destination.
func (f *File) Commit() error {
	if f.done {
		return errors.New("sink already finished")
	}
	f.done = true
	tmpPath := f.tmp.Name()

	if err := f.bw.Flush(); err != nil {
		_ = f.tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.tmp.Sync(); err != nil {
		_ = f.tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, f.dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// Abort closes and removes the temporary file. The destination is untouched.
func (f *File) Abort() error {
	if f.done {
		return nil
	}
	f.done = true
	closeErr := f.tmp.Close()
	if err := os.Remove(f.tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return closeErr
}
