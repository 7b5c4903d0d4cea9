package main

import (
	"errors"
	"net/http"
	"time"

	"cmsbe/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const refreshCookie = "refreshToken"

func registerHandler(c *gin.Context) {
	var req struct {
		Username   string `json:"username" binding:"required"`
		Passphrase string `json:"passphrase" binding:"required"`
		FirstName  string `json:"first_name" binding:"required"`
		LastName   string `json:"last_name" binding:"required"`
		Email      string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := RegisterUser(RegisterInput{
		Username:   req.Username,
		Passphrase: req.Passphrase,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
	})
	switch {
	case errors.Is(err, ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "the username and/or email address is already registered"})
	case err != nil:
		internalError(c, err)
	default:
		c.JSON(http.StatusCreated, gin.H{"id": user.ID})
	}
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username   string `json:"username" binding:"required"`
		Passphrase string `json:"passphrase" binding:"required"`
	}
	// missing credentials get the same answer as wrong ones
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "credentials invalid or not provided"})
		return
	}
	user, err := Authenticate(req.Username, req.Passphrase)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "credentials invalid or not provided"})
		return
	}
	nonce, err := token.NewNonce()
	if err != nil {
		internalError(c, err)
		return
	}
	claims := token.Claims{
		GivenName:  user.FirstName,
		FamilyName: user.LastName,
		Email:      user.Email,
		Nonce:      nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.Sub(),
		},
	}
	access, err := accessTokens.Issue(claims)
	if err != nil {
		internalError(c, err)
		return
	}
	refresh, err := refreshTokens.Issue(claims)
	if err != nil {
		internalError(c, err)
		return
	}
	c.SetCookie(refreshCookie, refresh, int(refreshTokens.Life().Seconds()), "/", "", cfg.Env == "production", true)
	c.JSON(http.StatusOK, gin.H{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// refreshHandler mints a new access token from the refresh cookie, carrying
// the principal payload over unchanged. The refresh token is not rotated.
func refreshHandler(c *gin.Context) {
	raw, err := c.Cookie(refreshCookie)
	if err != nil || raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing refresh token"})
		return
	}
	if revoked.IsRevoked(raw) {
		c.JSON(http.StatusForbidden, gin.H{"error": "token is blacklisted"})
		return
	}
	claims, err := refreshTokens.Verify(raw)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid token"})
		return
	}
	access, err := accessTokens.Issue(token.Claims{
		GivenName:  claims.GivenName,
		FamilyName: claims.FamilyName,
		Email:      claims.Email,
		Nonce:      claims.Nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: claims.Subject,
		},
	})
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": access})
}

// logoutHandler blacklists the authenticated bearer token and, when present,
// the refresh cookie. requireAuth has already run, so the bearer is valid and
// a second logout with the now-blacklisted token is a 401.
func logoutHandler(c *gin.Context) {
	if raw := bearerToken(c); raw != "" {
		revoked.Add(raw, tokenRetention(accessTokens, raw))
	}
	if raw, err := c.Cookie(refreshCookie); err == nil && raw != "" {
		revoked.Add(raw, tokenRetention(refreshTokens, raw))
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

// tokenRetention bounds how long a revoked token is kept: its own expiry when
// readable, otherwise one full lifetime from now.
func tokenRetention(svc *token.Service, raw string) time.Time {
	if exp := svc.Expiry(raw); !exp.IsZero() {
		return exp
	}
	return time.Now().Add(svc.Life())
}
