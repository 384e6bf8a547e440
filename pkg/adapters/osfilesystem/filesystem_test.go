package osfilesystem

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSystem_WriteAndReadFile(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "test.txt")

	if err := fs.WriteFile(path, []byte("hello world")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", data)
	}
}

func TestFileSystem_WriteFileReplacesAndLeavesNoTemp(t *testing.T) {
	fs := New()
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")

	if err := fs.WriteFile(path, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := fs.WriteFile(path, []byte("second")); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "second" {
		t.Errorf("expected replaced content, got %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("expected mode 0644, got %v", info.Mode().Perm())
	}
}

func TestFileSystem_WriteFileCreatesParentDirs(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "a", "b", "c", "test.txt")

	if err := fs.WriteFile(path, []byte("test")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %v", err)
	}
}

func TestFileSystem_MkdirAll(t *testing.T) {
	fs := New()
	dir := filepath.Join(t.TempDir(), "x", "y")

	if err := fs.MkdirAll(dir); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("expected directory, got %v", err)
	}
	if err := fs.MkdirAll(dir); err != nil {
		t.Errorf("MkdirAll on an existing directory failed: %v", err)
	}
}

func TestFileSystem_WriteFileIntoFile(t *testing.T) {
	fs := New()
	blocker := filepath.Join(t.TempDir(), "file")
	if err := fs.WriteFile(blocker, []byte("x")); err != nil {
		t.Fatal(err)
	}

	if err := fs.WriteFile(filepath.Join(blocker, "child.png"), []byte("y")); err == nil {
		t.Error("expected error when a parent is a regular file")
	}
}

func TestFileSystem_ReadMissing(t *testing.T) {
	if _, err := New().ReadFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
