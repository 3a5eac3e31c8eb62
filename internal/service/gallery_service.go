package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"orgdesk/internal/config"
	"orgdesk/internal/models"
	"orgdesk/internal/repository"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

const (
	DefaultUploadDir            = "/tmp/orgdesk/uploads/gallery"
	DefaultImageMaxUploadSizeMB = 10
	GalleryMasterMaxSize        = 2048
	GalleryThumbSize            = 320
	GalleryWebPQuality          = 75
)

// UploadGalleryImageInput carries one raw upload into the gallery pipeline.
type UploadGalleryImageInput struct {
	UserID      uint
	Title       string
	Filename    string
	ContentType string
	Content     []byte
}

// GalleryService validates uploads, re-encodes them to WebP with a thumbnail,
// and stores the results by content hash.
type GalleryService struct {
	repo               repository.GalleryRepository
	uploadDir          string
	maxUploadSizeBytes int64
}

// NewGalleryService returns a new GalleryService.
func NewGalleryService(repo repository.GalleryRepository, cfg *config.Config) *GalleryService {
	uploadDir := DefaultUploadDir
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB

	if cfg != nil {
		if cfg.UploadDir != "" {
			uploadDir = cfg.UploadDir
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
	}

	return &GalleryService{
		repo:               repo,
		uploadDir:          uploadDir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// Upload processes a raw upload end to end. Re-uploading identical content by
// the same user returns the existing record.
func (s *GalleryService) Upload(ctx context.Context, in UploadGalleryImageInput) (*models.GalleryImage, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if !isSupportedDecodedFormat(format) {
		return nil, models.NewValidationError("Unsupported image format")
	}

	hash := buildGalleryHash(in.UserID, in.Content)
	if existing, getErr := s.repo.GetByHash(ctx, hash); getErr == nil {
		return existing, nil
	}

	master := resizeToFit(decoded, GalleryMasterMaxSize, GalleryMasterMaxSize)
	thumb := resizeToFit(decoded, GalleryThumbSize, GalleryThumbSize)

	masterBytes, err := encodeWebP(master, GalleryWebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	thumbBytes, err := encodeWebP(thumb, GalleryWebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	masterRel := filepath.ToSlash(filepath.Join(hash, "master.webp"))
	thumbRel := filepath.ToSlash(filepath.Join(hash, "thumb.webp"))
	masterAbs := filepath.Join(s.uploadDir, masterRel)
	thumbAbs := filepath.Join(s.uploadDir, thumbRel)

	if err := writeBytesToFile(masterAbs, masterBytes); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := writeBytesToFile(thumbAbs, thumbBytes); err != nil {
		_ = os.Remove(masterAbs)
		return nil, models.NewInternalError(err)
	}

	bounds := master.Bounds()
	record := &models.GalleryImage{
		Hash:         hash,
		Title:        strings.TrimSpace(in.Title),
		OriginalName: in.Filename,
		ContentType:  "image/webp",
		Path:         masterRel,
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		Bytes:        int64(len(masterBytes)),
		UploaderID:   in.UserID,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		_ = os.Remove(masterAbs)
		_ = os.Remove(thumbAbs)
		return nil, err
	}

	return record, nil
}

// ResolveForServing maps a hash and variant to a file on disk.
func (s *GalleryService) ResolveForServing(ctx context.Context, hash, variant string) (*models.GalleryImage, string, error) {
	if !isValidImageHash(hash) {
		return nil, "", models.NewValidationError("Invalid image hash")
	}

	img, err := s.repo.GetByHash(ctx, hash)
	if err != nil {
		return nil, "", err
	}

	name := "master.webp"
	if variant == "thumb" {
		name = "thumb.webp"
	}
	fullPath := filepath.Join(s.uploadDir, hash, name)
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil, "", models.NewNotFoundError("Image", hash)
		}
		return nil, "", models.NewInternalError(err)
	}
	return img, fullPath, nil
}

// List returns gallery images newest first.
func (s *GalleryService) List(ctx context.Context, limit, offset int) ([]models.GalleryImage, int64, error) {
	return s.repo.List(ctx, limit, offset)
}

// Delete removes the record and its files.
func (s *GalleryService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return nil
}

// BuildImageURL returns the serving URL for a stored image.
func (s *GalleryService) BuildImageURL(hash, variant string) string {
	if variant == "thumb" {
		return fmt.Sprintf("/media/gallery/%s/thumb.webp", hash)
	}
	return fmt.Sprintf("/media/gallery/%s/master.webp", hash)
}

// isValidImageHash checks that the hash is strictly lowercase hex (SHA-256 style).
// This prevents path traversal attacks via crafted hash parameters.
func isValidImageHash(hash string) bool {
	if len(hash) == 0 || len(hash) > 128 {
		return false
	}
	for _, c := range hash {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

func buildGalleryHash(userID uint, content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d:", userID)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func writeBytesToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
