package main

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"cmsbe/models"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func fileFromContext(c *gin.Context) (*models.File, bool) {
	v, ok := c.Get(ctxFile)
	if !ok {
		return nil, false
	}
	f, ok := v.(*models.File)
	return f, ok
}

func listFilesHandler(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	items := []models.File{}
	if err := db.Where("owner = ?", claims.Subject).Order("id desc").Find(&items).Error; err != nil {
		internalError(c, err)
		return
	}
	for i := range items {
		if !isOwner(claims.Subject, items[i].Owner) {
			c.JSON(http.StatusForbidden, gin.H{"error": "you can only access your own data"})
			return
		}
	}
	c.JSON(http.StatusOK, items)
}

// uploadFileHandler stores a multipart upload under a fresh uuid name and
// records its metadata. Image uploads additionally get a thumbnail.
func uploadFileHandler(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	description := strings.TrimSpace(c.PostForm("description"))
	if len(description) < 5 || len(description) > 1024 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "the description must be between 5 and 1024 characters"})
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files were uploaded"})
		return
	}
	if fh.Size > cfg.MaxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}
	stored := uuid.NewString() + filepath.Ext(fh.Filename)
	full := filepath.Join(cfg.UploadDir, stored)
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		internalError(c, err)
		return
	}
	if err := c.SaveUploadedFile(fh, full); err != nil {
		internalError(c, err)
		return
	}
	ct := fh.Header.Get("Content-Type")
	thumb := ""
	if strings.HasPrefix(ct, "image/") {
		if t, err := makeThumbnail(full); err == nil {
			thumb = t
		} else {
			logger.Warn("thumbnail failed", "file", stored, "err", err)
		}
	}
	f := models.File{
		Name:        fh.Filename,
		StorePath:   stored,
		ThumbPath:   thumb,
		ContentType: ct,
		Size:        fh.Size,
		Description: description,
		Owner:       claims.Subject,
	}
	if err := db.Create(&f).Error; err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "file uploaded successfully", "file": f})
}

// makeThumbnail writes a bounded-size copy next to the original and returns
// its stored name.
func makeThumbnail(full string) (string, error) {
	img, err := imaging.Open(full)
	if err != nil {
		return "", err
	}
	fit := imaging.Fit(img, 320, 320, imaging.Lanczos)
	ext := filepath.Ext(full)
	thumb := strings.TrimSuffix(filepath.Base(full), ext) + "_thumb" + ext
	if err := imaging.Save(fit, filepath.Join(filepath.Dir(full), thumb)); err != nil {
		return "", err
	}
	return thumb, nil
}

func getFileHandler(c *gin.Context) {
	f, ok := fileFromContext(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.JSON(http.StatusOK, f)
}

func updateFileHandler(c *gin.Context) {
	f, ok := fileFromContext(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	var req struct {
		Description string `json:"description" binding:"required,min=5,max=1024"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f.Description = strings.TrimSpace(req.Description)
	if err := db.Save(f).Error; err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "file updated successfully", "file": f})
}

func deleteFileHandler(c *gin.Context) {
	f, ok := fileFromContext(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	if err := db.Delete(f).Error; err != nil {
		internalError(c, err)
		return
	}
	// best-effort cleanup of the stored blobs
	if f.StorePath != "" {
		_ = os.Remove(filepath.Join(cfg.UploadDir, f.StorePath))
	}
	if f.ThumbPath != "" {
		_ = os.Remove(filepath.Join(cfg.UploadDir, f.ThumbPath))
	}
	c.JSON(http.StatusOK, gin.H{"message": "file deleted successfully", "file": f})
}
