package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cmsbe/pkg/revoke"
	"cmsbe/pkg/token"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func testKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	return string(pem.EncodeToMemory(block))
}

// setupAuthEnv wires the package globals for handler/middleware tests and
// returns the access-token signing key PEM so tests can forge related
// services (e.g. an already-expired issuer with the same key).
func setupAuthEnv(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg = &Config{
		Env:              "test",
		Port:             0,
		BcryptRounds:     bcrypt.MinCost,
		MaxFileSize:      10 * 1024 * 1024,
		UploadDir:        t.TempDir(),
		AllowedOrigins:   []string{"http://localhost:3000"},
		AccessTokenLife:  15 * time.Minute,
		RefreshTokenLife: 7 * 24 * time.Hour,
		RateLimitWindow:  time.Minute,
		RateLimitMax:     1000,
	}
	accessPEM := testKeyPEM(t)
	var err error
	accessTokens, err = token.NewService(accessPEM, cfg.AccessTokenLife)
	require.NoError(t, err)
	refreshTokens, err = token.NewService(testKeyPEM(t), cfg.RefreshTokenLife)
	require.NoError(t, err)
	revoked = revoke.NewMemory()
	return accessPEM
}

// newMockDB swaps the package db for a sqlmock-backed gorm handle.
func newMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	db = gdb
	return mock
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	r := gin.New()
	setupRoutes(r)
	return r
}

func issueTestToken(t *testing.T, svc *token.Service, sub string) string {
	t.Helper()
	nonce, err := token.NewNonce()
	require.NoError(t, err)
	raw, err := svc.Issue(token.Claims{
		GivenName:  "Anna",
		FamilyName: "Bergman",
		Email:      "anna@example.com",
		Nonce:      nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: sub,
		},
	})
	require.NoError(t, err)
	return raw
}

// performRequest runs a request through the handler with optional bearer
// token and content type.
func performRequest(r http.Handler, method, path string, body io.Reader, tok, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func userRows(t *testing.T, id int64, username, passphrase string) *sqlmock.Rows {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "created_at", "updated_at", "username", "passphrase", "first_name", "last_name", "email"}).
		AddRow(id, now, now, username, hash, "Anna", "Bergman", "anna@example.com")
}

func articleRows(id int64, title, owner string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "created_at", "updated_at", "title", "body", "image_url", "image_text", "owner"}).
		AddRow(id, now, now, title, "some body text here", "https://example.com/img.png", "an image", owner)
}
