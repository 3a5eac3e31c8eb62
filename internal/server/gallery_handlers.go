// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"io"
	"strings"

	"orgdesk/internal/models"
	"orgdesk/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GalleryImageResponse is the API response for a gallery image.
type GalleryImageResponse struct {
	ID           uint   `json:"id"`
	Hash         string `json:"hash"`
	Title        string `json:"title"`
	OriginalName string `json:"original_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Bytes        int64  `json:"bytes"`
	URL          string `json:"url"`
	ThumbURL     string `json:"thumb_url"`
}

// UploadGalleryImage handles POST /api/gallery
func (s *Server) UploadGalleryImage(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}

	uploaded, err := s.galleryService.Upload(c.UserContext(), service.UploadGalleryImageInput{
		UserID:      userID,
		Title:       c.FormValue("title"),
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(s.toGalleryImageResponse(uploaded))
}

// ListGalleryImages handles GET /api/gallery
func (s *Server) ListGalleryImages(c *fiber.Ctx) error {
	page := parsePagination(c, 24)

	images, total, err := s.galleryService.List(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	responses := make([]GalleryImageResponse, 0, len(images))
	for i := range images {
		responses = append(responses, s.toGalleryImageResponse(&images[i]))
	}

	return c.JSON(fiber.Map{"images": responses, "total": total})
}

// DeleteGalleryImage handles DELETE /api/gallery/:id (admin only)
func (s *Server) DeleteGalleryImage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.galleryService.Delete(c.UserContext(), id); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Image deleted"})
}

// ServeGalleryImage handles GET /media/gallery/:hash/:file
// The file segment selects the variant: master.webp or thumb.webp.
func (s *Server) ServeGalleryImage(c *fiber.Ctx) error {
	hash := strings.TrimSpace(c.Params("hash"))

	var variant string
	switch c.Params("file") {
	case "master.webp":
		variant = ""
	case "thumb.webp":
		variant = "thumb"
	default:
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Image", c.Params("file")))
	}

	_, path, err := s.galleryService.ResolveForServing(c.UserContext(), hash, variant)
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Set("Cache-Control", "public, max-age=31536000, immutable")
	c.Set("Content-Type", "image/webp")
	return c.SendFile(path)
}

func (s *Server) toGalleryImageResponse(img *models.GalleryImage) GalleryImageResponse {
	return GalleryImageResponse{
		ID:           img.ID,
		Hash:         img.Hash,
		Title:        img.Title,
		OriginalName: img.OriginalName,
		Width:        img.Width,
		Height:       img.Height,
		Bytes:        img.Bytes,
		URL:          s.galleryService.BuildImageURL(img.Hash, ""),
		ThumbURL:     s.galleryService.BuildImageURL(img.Hash, "thumb"),
	}
}
