package transfer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ftpbrowser/session"
)

func TestSaveArchive(t *testing.T) {
	srv, creds := newServer(t)
	srv.AddFile("/pub/a.txt", []byte("alpha"))

	dest := filepath.Join(t.TempDir(), "out.zip")
	summary, err := NewService(testConfig()).SaveArchive(creds, "pub", []string{"a.txt"}, dest)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if summary.TotalBytes != 5 {
		t.Errorf("unexpected total %d", summary.TotalBytes)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	order, content := entries(t, data)
	if len(order) != 1 || string(content["a.txt"]) != "alpha" {
		t.Errorf("unexpected archive %v", order)
	}
}

func TestSaveArchiveFailureLeavesNothing(t *testing.T) {
	srv, creds := newServer(t)
	srv.AddFile("/a", []byte("a"))
	srv.AddFile("/b", []byte("bbbbbb"))
	srv.AbortTransfer("/b")

	dir := t.TempDir()
	dest := filepath.Join(dir, "out.zip")
	_, err := NewService(testConfig()).SaveArchive(creds, "", []string{"a", "b"}, dest)
	if !errors.Is(err, session.ErrTransfer) {
		t.Fatalf("expected ErrTransfer, got %v", err)
	}

	left, _ := os.ReadDir(dir)
	if len(left) != 0 {
		t.Errorf("expected no files after failure, found %d", len(left))
	}
}
