package output

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "quote.pdf")
	if err := WriteFile(path, []byte("first")); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	if err := WriteFile(path, []byte("%PDF-second")); err != nil {
		t.Fatalf("覆盖写入失败: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "%PDF-second" {
		t.Fatalf("文件内容错误: %q %v", got, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("不应留下临时文件: %d 个条目", len(entries))
	}
}

func TestWriteFileFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	// 目标路径是一个已存在的目录，rename 必然失败
	path := filepath.Join(dir, "taken")
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	if err := os.WriteFile(filepath.Join(path, "keep"), nil, 0o644); err != nil {
		t.Fatalf("写入占位文件失败: %v", err)
	}
	err := WriteFile(path, []byte("data"))
	if !errors.Is(err, ErrWriteFailure) {
		t.Fatalf("应返回 ErrWriteFailure: %v", err)
	}
	var we *WriteError
	if !errors.As(err, &we) || we.Op != "rename" || we.Dest != path {
		t.Fatalf("WriteError 字段错误: %+v", we)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("失败后应清理临时文件: %d 个条目", len(entries))
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return len(p) / 2, nil }

func TestDestination(t *testing.T) {
	var buf bytes.Buffer
	if err := (Destination{Writer: &buf}).Write([]byte("pdf")); err != nil || buf.String() != "pdf" {
		t.Fatalf("写入 writer 失败: %q %v", buf.String(), err)
	}
	if err := (Destination{Writer: failingWriter{}}).Write([]byte("pdf")); !errors.Is(err, ErrWriteFailure) {
		t.Fatalf("短写应报告失败: %v", err)
	}
	if err := (Destination{}).Write([]byte("pdf")); !errors.Is(err, ErrWriteFailure) {
		t.Fatalf("空目标应报告失败: %v", err)
	}
}
