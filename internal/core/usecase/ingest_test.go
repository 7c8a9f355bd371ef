package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/bovicare/bovicare/internal/core/domain"
)

type storageFake struct {
	keys    []string
	content string
	saveErr error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.keys = append(f.keys, key)
	f.content = string(b)
	return nil
}

func (f *storageFake) Open(_ context.Context, _ string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(f.content)), nil
}

type queueFake struct {
	published  []string
	publishErr error
}

func (f *queueFake) PublishDocumentIngested(_ context.Context, documentID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeDocumentIngested(_ context.Context, _ func(context.Context, string) error) error {
	return nil
}

func TestUploadStoresPersistsAndPublishes(t *testing.T) {
	repo := &repoFake{}
	storage := &storageFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue)

	doc, err := uc.Upload(context.Background(), "mastitis notes.pdf", "application/pdf", strings.NewReader("body"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID == "" {
		t.Fatalf("expected generated document id")
	}
	if doc.Status != domain.StatusUploaded {
		t.Fatalf("expected uploaded status, got %s", doc.Status)
	}
	if len(storage.keys) != 1 || !strings.HasSuffix(storage.keys[0], "_mastitis_notes.pdf") {
		t.Fatalf("unexpected storage key: %v", storage.keys)
	}
	if storage.content != "body" {
		t.Fatalf("body not stored, got %q", storage.content)
	}
	if len(repo.createdDocs) != 1 || repo.createdDocs[0].ID != doc.ID {
		t.Fatalf("document metadata not created")
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("ingestion event not published: %v", queue.published)
	}
}

func TestUploadStorageFailureStopsPipeline(t *testing.T) {
	repo := &repoFake{}
	storage := &storageFake{saveErr: errors.New("disk full")}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue)

	if _, err := uc.Upload(context.Background(), "a.pdf", "application/pdf", strings.NewReader("x")); err == nil {
		t.Fatalf("expected storage error")
	}
	if len(repo.createdDocs) != 0 || len(queue.published) != 0 {
		t.Fatalf("nothing may be persisted or published after a storage failure")
	}
}

func TestUploadPublishFailureSurfaces(t *testing.T) {
	repo := &repoFake{}
	storage := &storageFake{}
	queue := &queueFake{publishErr: errors.New("nats down")}
	uc := NewIngestDocumentUseCase(repo, storage, queue)

	if _, err := uc.Upload(context.Background(), "a.pdf", "application/pdf", strings.NewReader("x")); err == nil {
		t.Fatalf("expected publish error")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"ibr report.pdf", "ibr_report.pdf"},
		{"../../etc/passwd", "passwd"},
		{"график вакцинации.xlsx", "_________________.xlsx"},
		{"plain.txt", "plain.txt"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
