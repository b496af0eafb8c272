package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxFlyerSize = 10 * 1024 * 1024

var allowedFlyerTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// UploadFlyer stores an event flyer and returns the URL to put in
// image_url.
func (s *Server) UploadFlyer(c *gin.Context) {
	if s.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "File storage is not configured"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	if header.Size > maxFlyerSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File size exceeds 10MB limit"})
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !allowedFlyerTypes[contentType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("File type not allowed: %s", contentType)})
		return
	}

	obj, err := s.storage.UploadFlyer(c.Request.Context(), file, header.Filename, contentType)
	if err != nil {
		s.log.WithError(err).Error("Flyer upload failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("Failed to upload file: %v", err)})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"url":  obj.PublicURL,
		"name": obj.Name,
		"type": contentType,
		"size": header.Size,
	})
}

func (s *Server) DeleteFlyer(c *gin.Context) {
	if s.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "File storage is not configured"})
		return
	}
	if err := s.storage.DeleteFlyer(c.Request.Context(), "flyers/"+c.Param("name")); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
