// Package output finalizes a rendered document. A file destination is written
// atomically: either the complete document appears at the path or nothing does.
package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrWriteFailure matches every error returned by this package.
var ErrWriteFailure = errors.New("output: write failed")

// WriteError names the destination and operation that failed.
type WriteError struct {
	Dest string
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("output: %s %s: %v", e.Op, e.Dest, e.Err)
	}
	return fmt.Sprintf("output: %s %s failed", e.Op, e.Dest)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrWriteFailure) hold.
func (e *WriteError) Is(target error) bool { return target == ErrWriteFailure }

// Destination is where a document goes: a file path or a writer. Path wins when both
// are set.
type Destination struct {
	Path   string
	Writer io.Writer
}

// String describes the destination for logs.
func (d Destination) String() string {
	switch {
	case d.Path != "":
		return d.Path
	case d.Writer != nil:
		return "<writer>"
	default:
		return "<none>"
	}
}

// Write delivers data to d.
func (d Destination) Write(data []byte) error {
	switch {
	case d.Path != "":
		return WriteFile(d.Path, data)
	case d.Writer != nil:
		return Write(d.Writer, data)
	default:
		return &WriteError{Dest: d.String(), Op: "resolve", Err: errors.New("no destination")}
	}
}

// Write copies the fully buffered document to w in one call.
func Write(w io.Writer, data []byte) error {
	n, err := w.Write(data)
	if err == nil && n != len(data) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return &WriteError{Dest: "<writer>", Op: "write", Err: err}
	}
	return nil
}

// WriteFile writes data to a temporary file next to path, syncs it and renames it
// over path. The temporary file is removed on every failure.
func WriteFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{Dest: path, Op: "mkdir", Err: err}
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &WriteError{Dest: path, Op: "create", Err: err}
	}
	name := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(name)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return &WriteError{Dest: path, Op: "write", Err: err}
	}
	if err = tmp.Sync(); err != nil {
		return &WriteError{Dest: path, Op: "sync", Err: err}
	}
	if err = tmp.Chmod(0o644); err != nil {
		return &WriteError{Dest: path, Op: "chmod", Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &WriteError{Dest: path, Op: "close", Err: err}
	}
	if err = os.Rename(name, path); err != nil {
		return &WriteError{Dest: path, Op: "rename", Err: err}
	}
	return nil
}
