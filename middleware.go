package main

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"cmsbe/models"
	"cmsbe/pkg/token"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	ctxClaims  = "claims"
	ctxToken   = "rawToken"
	ctxArticle = "article"
	ctxFile    = "file"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header, empty string if the header or scheme is absent.
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// requireAuth rejects requests without a valid, non-revoked bearer token and
// attaches the verified claims to the context. A blacklisted bearer token is a
// 401 here; the refresh endpoint answers 403 for a blacklisted cookie.
func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		if revoked.IsRevoked(raw) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token is blacklisted"})
			c.Abort()
			return
		}
		claims, err := accessTokens.Verify(raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Set(ctxClaims, claims)
		c.Set(ctxToken, raw)
		c.Next()
	}
}

func currentClaims(c *gin.Context) (*token.Claims, bool) {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*token.Claims)
	return claims, ok
}

// isOwner compares canonical string identifiers. Both sides must already be
// in decimal form; an empty subject never owns anything.
func isOwner(sub, owner string) bool {
	return sub != "" && sub == owner
}

// requireArticleOwner loads the article from the path id and rejects with 404
// if absent, 403 if owned by someone else. The loaded record is stashed in
// the context for the handler.
func requireArticleOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
			c.Abort()
			return
		}
		var a models.Article
		if err := db.First(&a, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
			c.Abort()
			return
		}
		if !isOwner(claims.Subject, a.Owner) {
			c.JSON(http.StatusForbidden, gin.H{"error": "you can only access your own data"})
			c.Abort()
			return
		}
		c.Set(ctxArticle, &a)
		c.Next()
	}
}

func requireFileOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			c.Abort()
			return
		}
		var f models.File
		if err := db.First(&f, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			c.Abort()
			return
		}
		if !isOwner(claims.Subject, f.Owner) {
			c.JSON(http.StatusForbidden, gin.H{"error": "you can only access your own data"})
			c.Abort()
			return
		}
		c.Set(ctxFile, &f)
		c.Next()
	}
}

// requireSelf guards /users/:id routes: the path id, reduced to its canonical
// decimal form, must be the principal's own subject.
func requireSelf() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			c.Abort()
			return
		}
		if !isOwner(claims.Subject, strconv.FormatUint(id, 10)) {
			c.JSON(http.StatusForbidden, gin.H{"error": "you can only access your own data"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func corsMiddleware(allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && originAllowed(allowed, origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

// ipLimiter hands out one token bucket per client IP.
type ipLimiter struct {
	mu      sync.Mutex
	clients map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func newIPLimiter(maxRequests int, window time.Duration) *ipLimiter {
	return &ipLimiter{
		clients: map[string]*rate.Limiter{},
		limit:   rate.Every(window / time.Duration(maxRequests)),
		burst:   maxRequests,
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.clients[ip]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.clients[ip] = lim
	}
	return lim
}

func rateLimitMiddleware(l *ipLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.get(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// internalError answers 500, suppressing detail outside development mode.
func internalError(c *gin.Context, err error) {
	logger.Error("internal error", "path", c.FullPath(), "err", err)
	if cfg != nil && cfg.Env == "development" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
