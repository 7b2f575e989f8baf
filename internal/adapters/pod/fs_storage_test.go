package pod

import (
	"context"
	"errors"
	"manifest-service/internal/domain"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStorePOD_WritesUnderTripDir(t *testing.T) {
	dir := t.TempDir()
	s := NewFSStorage(dir, "/pod/")

	data := []byte("%PDF-1.4\n%test document\n")
	url, err := s.StorePOD(context.Background(), "trip-1", data)
	if err != nil {
		t.Fatalf("StorePOD err = %v", err)
	}
	if !strings.HasPrefix(url, "/pod/trip-1/") || !strings.HasSuffix(url, ".pdf") {
		t.Fatalf("url = %q, want /pod/trip-1/<name>.pdf", url)
	}

	got, err := os.ReadFile(filepath.Join(dir, "trip-1", filepath.Base(url)))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("stored content differs")
	}
}

func TestStorePOD_RejectsUnknownType(t *testing.T) {
	s := NewFSStorage(t.TempDir(), "/pod")

	_, err := s.StorePOD(context.Background(), "trip-1", []byte("just some text"))
	var verrs domain.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("err = %v, want ValidationErrors", err)
	}
}

func TestStorePOD_RejectsPathInTripID(t *testing.T) {
	s := NewFSStorage(t.TempDir(), "/pod")

	if _, err := s.StorePOD(context.Background(), "../etc", []byte("%PDF-1.4")); err == nil {
		t.Fatalf("StorePOD(../etc) err = nil, want error")
	}
}
