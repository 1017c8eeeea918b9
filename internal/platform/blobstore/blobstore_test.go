package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestUploadAndDownload(t *testing.T) {
	store := NewInMemoryBlobStore()
	ctx := context.Background()

	content := []byte("pdf-bytes")
	meta, err := store.Upload(ctx, BlobMetadata{
		FileName: "brief.pdf",
		Category: CategoryBrief,
		OwnerID:  "user-1",
	}, bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if meta.ID == "" {
		t.Error("expected generated blob id")
	}
	if meta.Size != int64(len(content)) {
		t.Errorf("size = %d, want %d", meta.Size, len(content))
	}
	if meta.Hash == "" {
		t.Error("expected content hash")
	}

	rc, gotMeta, err := store.Download(ctx, meta.ID)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if !bytes.Equal(data, content) {
		t.Error("downloaded bytes differ from uploaded bytes")
	}
	if gotMeta.FileName != "brief.pdf" || gotMeta.Category != CategoryBrief {
		t.Errorf("metadata = %+v", gotMeta)
	}
}

func TestUploadRequiresFileName(t *testing.T) {
	store := NewInMemoryBlobStore()
	_, err := store.Upload(context.Background(), BlobMetadata{}, strings.NewReader("x"))
	if !errors.Is(err, ErrMissingFileName) {
		t.Fatalf("error = %v, want ErrMissingFileName", err)
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	store := NewInMemoryBlobStore()
	huge := io.LimitReader(zeroReader{}, MaxFileSize+1)
	_, err := store.Upload(context.Background(), BlobMetadata{FileName: "big.bin"}, huge)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("error = %v, want ErrFileTooLarge", err)
	}
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func TestDownloadMissing(t *testing.T) {
	store := NewInMemoryBlobStore()
	_, _, err := store.Download(context.Background(), "nope")
	if !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("error = %v, want ErrBlobNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	store := NewInMemoryBlobStore()
	ctx := context.Background()

	meta, err := store.Upload(ctx, BlobMetadata{FileName: "r.png", Category: CategoryReceipt}, strings.NewReader("png"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := store.Delete(ctx, meta.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetMetadata(ctx, meta.ID); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("metadata still present after delete: %v", err)
	}
	if err := store.Delete(ctx, meta.ID); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("second delete error = %v, want ErrBlobNotFound", err)
	}
}
