package main

import (
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"cmsbe/models"

	"github.com/gin-gonic/gin"
)

// loadUserParam resolves the :id path parameter to a user record. requireSelf
// has already run, so the id is the principal's own.
func loadUserParam(c *gin.Context) (*models.User, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return nil, false
	}
	var u models.User
	if err := db.First(&u, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return nil, false
	}
	return &u, true
}

func getUserHandler(c *gin.Context) {
	u, ok := loadUserParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, u)
}

// updateUserHandler changes profile fields only. The passphrase is set at
// registration and never updated through this flow.
func updateUserHandler(c *gin.Context) {
	u, ok := loadUserParam(c)
	if !ok {
		return
	}
	var req struct {
		FirstName *string `json:"first_name" binding:"omitempty,min=1,max=256"`
		LastName  *string `json:"last_name" binding:"omitempty,min=1,max=256"`
		Email     *string `json:"email" binding:"omitempty,max=254"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.FirstName != nil {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "please provide a valid email address"})
			return
		}
		u.Email = email
	}
	if err := db.Save(u).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "the email address is already registered"})
			return
		}
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user updated successfully", "user": u})
}

func deleteUserHandler(c *gin.Context) {
	u, ok := loadUserParam(c)
	if !ok {
		return
	}
	if err := db.Delete(u).Error; err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted successfully", "user": u})
}
