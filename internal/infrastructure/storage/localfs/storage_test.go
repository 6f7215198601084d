package localfs

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveCreatesNestedKeyDirs(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key := "cases/case-7/documents/doc-1_brief.pdf"
	if err := store.Save(context.Background(), key, strings.NewReader("pdf bytes")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reader, err := store.Open(context.Background(), key)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(data, []byte("pdf bytes")) {
		t.Fatalf("round trip mismatch: %q", data)
	}
}

func TestOpenMissingKey(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := store.Open(context.Background(), "cases/none/documents/x.pdf"); err == nil {
		t.Fatal("expected error for missing key")
	}
}
