package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveContentPrefersInlineContent(t *testing.T) {
	got, err := resolveContent("hello", "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func TestResolveContentReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.txt")
	if err := os.WriteFile(path, []byte("from file"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := resolveContent("", path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "from file" {
		t.Fatalf("got %q, want %q", got, "from file")
	}
}

func TestResolveContentFilePrecedesInlineContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.txt")
	if err := os.WriteFile(path, []byte("from file"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := resolveContent("inline", path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "from file" {
		t.Fatalf("got %q, want file content to win", got)
	}
}

func TestResolveContentRequiresOne(t *testing.T) {
	if _, err := resolveContent("", ""); err == nil {
		t.Fatal("expected error when neither --content nor --file is set")
	}
}

func TestResolveContentMissingFileErrors(t *testing.T) {
	if _, err := resolveContent("", "/nonexistent/path/does-not-exist"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
