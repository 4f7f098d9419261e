package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/storefront/internal/core/domain"
)

const imagesPath = "/api/images/"

// multipartOverhead leaves room for the form boundaries around the file.
const multipartOverhead = 64 << 10

func (h *HTTPHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.svc.Media.MaxBytes()+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, "file is unreadable")
		return
	}
	defer f.Close()

	image, err := h.svc.Media.Upload(c.Request.Context(), fh.Filename, fh.Size, f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":       imagesPath + image.ID,
		"public_id": image.ID,
		"image":     image,
	})
}

func (h *HTTPHandler) DeleteImage(c *gin.Context) {
	if err := h.svc.Media.Delete(c.Request.Context(), c.Query("public_id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "image deleted"})
}

func (h *HTTPHandler) GetImage(c *gin.Context) {
	image, rc, err := h.svc.Media.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, image.Size, image.ContentType, rc, map[string]string{
		"Cache-Control":          "public, max-age=86400",
		"X-Content-Type-Options": "nosniff",
	})
}

func (h *HTTPHandler) Contact(c *gin.Context) {
	var req domain.ContactMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.svc.Contact.Submit(c.Request.Context(), req); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "message sent"})
}
