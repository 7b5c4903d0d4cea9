package main

import (
	"net/http"

	"cmsbe/models"

	"github.com/gin-gonic/gin"
)

func articleFromContext(c *gin.Context) (*models.Article, bool) {
	v, ok := c.Get(ctxArticle)
	if !ok {
		return nil, false
	}
	a, ok := v.(*models.Article)
	return a, ok
}

// listArticlesHandler returns the principal's own articles. The query is
// already owner-scoped; each row is still re-checked and any mismatch aborts
// the whole response.
func listArticlesHandler(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	items := []models.Article{}
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

func createArticleHandler(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req struct {
		Title     string `json:"title" binding:"required,min=5,max=512"`
		Body      string `json:"body" binding:"required,min=10"`
		ImageURL  string `json:"image_url" binding:"required,url"`
		ImageText string `json:"image_text" binding:"required,max=1024"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a := models.Article{
		Title:     req.Title,
		Body:      req.Body,
		ImageURL:  req.ImageURL,
		ImageText: req.ImageText,
		Owner:     claims.Subject,
	}
	if err := db.Create(&a).Error; err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "article created successfully", "article": a})
}

func getArticleHandler(c *gin.Context) {
	a, ok := articleFromContext(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	c.JSON(http.StatusOK, a)
}

func updateArticleHandler(c *gin.Context) {
	a, ok := articleFromContext(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	var req struct {
		Title     *string `json:"title" binding:"omitempty,min=5,max=512"`
		Body      *string `json:"body" binding:"omitempty,min=10"`
		ImageURL  *string `json:"image_url" binding:"omitempty,url"`
		ImageText *string `json:"image_text" binding:"omitempty,max=1024"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title != nil {
		a.Title = *req.Title
	}
	if req.Body != nil {
		a.Body = *req.Body
	}
	if req.ImageURL != nil {
		a.ImageURL = *req.ImageURL
	}
	if req.ImageText != nil {
		a.ImageText = *req.ImageText
	}
	if err := db.Save(a).Error; err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "article updated successfully", "article": a})
}

func deleteArticleHandler(c *gin.Context) {
	a, ok := articleFromContext(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	if err := db.Delete(a).Error; err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "article deleted successfully", "article": a})
}
