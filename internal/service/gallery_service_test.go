package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"orgdesk/internal/config"
	"orgdesk/internal/models"
)

type galleryRepoStub struct {
	byHash map[string]*models.GalleryImage
	nextID uint
}

func newGalleryRepoStub() *galleryRepoStub {
	return &galleryRepoStub{byHash: make(map[string]*models.GalleryImage)}
}

func (s *galleryRepoStub) Create(_ context.Context, image *models.GalleryImage) error {
	s.nextID++
	image.ID = s.nextID
	copied := *image
	s.byHash[image.Hash] = &copied
	return nil
}

func (s *galleryRepoStub) GetByHash(_ context.Context, hash string) (*models.GalleryImage, error) {
	if img, ok := s.byHash[hash]; ok {
		copied := *img
		return &copied, nil
	}
	return nil, models.NewNotFoundError("Image", hash)
}

func (s *galleryRepoStub) List(_ context.Context, _, _ int) ([]models.GalleryImage, int64, error) {
	out := make([]models.GalleryImage, 0, len(s.byHash))
	for _, img := range s.byHash {
		out = append(out, *img)
	}
	return out, int64(len(out)), nil
}

func (s *galleryRepoStub) Delete(_ context.Context, id uint) error {
	for hash, img := range s.byHash {
		if img.ID == id {
			delete(s.byHash, hash)
		}
	}
	return nil
}

func tinyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestGalleryServiceUploadAndResolve(t *testing.T) {
	repo := newGalleryRepoStub()
	cfg := &config.Config{UploadDir: t.TempDir(), ImageMaxUploadSizeMB: 5}
	svc := NewGalleryService(repo, cfg)

	content := tinyPNG(t, 1200, 800)
	img, err := svc.Upload(context.Background(), UploadGalleryImageInput{
		UserID:      42,
		Title:       "Annual gathering",
		Filename:    "gathering.png",
		ContentType: "image/png",
		Content:     content,
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if img.ID == 0 || img.Hash == "" {
		t.Fatalf("expected persisted image metadata, got %+v", img)
	}
	if img.ContentType != "image/webp" {
		t.Fatalf("expected webp content type, got %s", img.ContentType)
	}

	for _, name := range []string{"master.webp", "thumb.webp"} {
		path := filepath.Join(cfg.UploadDir, img.Hash, name)
		if _, statErr := os.Stat(path); statErr != nil {
			t.Fatalf("expected file at %s: %v", path, statErr)
		}
	}

	// Same content by same user should dedupe.
	img2, err := svc.Upload(context.Background(), UploadGalleryImageInput{
		UserID:      42,
		Filename:    "gathering-copy.png",
		ContentType: "image/png",
		Content:     content,
	})
	if err != nil {
		t.Fatalf("dedupe upload failed: %v", err)
	}
	if img2.ID != img.ID {
		t.Fatalf("expected deduped record id %d, got %d", img.ID, img2.ID)
	}

	_, fullPath, err := svc.ResolveForServing(context.Background(), img.Hash, "thumb")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if filepath.Base(fullPath) != "thumb.webp" {
		t.Fatalf("expected thumb path, got %s", fullPath)
	}
}

func TestGalleryServiceUploadValidation(t *testing.T) {
	repo := newGalleryRepoStub()
	cfg := &config.Config{UploadDir: t.TempDir(), ImageMaxUploadSizeMB: 1}
	svc := NewGalleryService(repo, cfg)

	if _, err := svc.Upload(context.Background(), UploadGalleryImageInput{UserID: 0, Content: []byte{1}}); err == nil {
		t.Fatal("expected error for missing user")
	}
	if _, err := svc.Upload(context.Background(), UploadGalleryImageInput{UserID: 1}); err == nil {
		t.Fatal("expected error for empty upload")
	}
	if _, err := svc.Upload(context.Background(), UploadGalleryImageInput{
		UserID:  1,
		Content: []byte("definitely not an image"),
	}); err == nil {
		t.Fatal("expected error for non-image content")
	}

	big := make([]byte, 2*1024*1024)
	if _, err := svc.Upload(context.Background(), UploadGalleryImageInput{UserID: 1, Content: big}); err == nil {
		t.Fatal("expected error for oversized upload")
	}
}

func TestGalleryServiceResolveRejectsBadHash(t *testing.T) {
	svc := NewGalleryService(newGalleryRepoStub(), &config.Config{UploadDir: t.TempDir(), ImageMaxUploadSizeMB: 1})

	if _, _, err := svc.ResolveForServing(context.Background(), "../etc/passwd", ""); err == nil {
		t.Fatal("expected error for traversal attempt")
	}
	if _, _, err := svc.ResolveForServing(context.Background(), "ABCDEF", ""); err == nil {
		t.Fatal("expected error for non-lowercase-hex hash")
	}
}
