package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func doLogin(t *testing.T, r http.Handler, mock sqlmock.Sqlmock) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRows(t, 1, "anna_b", "long enough passphrase"))

	body := jsonBody(t, map[string]string{"username": "anna_b", "passphrase": "long enough passphrase"})
	rec := performRequest(r, http.MethodPost, "/api/v1/auth/login", body, "", "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func refreshCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookie {
			return c
		}
	}
	t.Fatal("refresh cookie not set")
	return nil
}

func TestRegisterEndpoint(t *testing.T) {
	setupAuthEnv(t)
	mock := newMockDB(t)
	r := newTestRouter(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	body := jsonBody(t, map[string]string{
		"username":   "anna_b",
		"passphrase": "long enough passphrase",
		"first_name": "Anna",
		"last_name":  "Bergman",
		"email":      "anna@example.com",
	})
	rec := performRequest(r, http.MethodPost, "/api/v1/auth/register", body, "", "application/json")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":7`)
}

func TestRegisterEndpointValidation(t *testing.T) {
	setupAuthEnv(t)
	r := newTestRouter(t)

	body := jsonBody(t, map[string]string{
		"username":   "anna_b",
		"passphrase": "short",
		"first_name": "Anna",
		"last_name":  "Bergman",
		"email":      "anna@example.com",
	})
	rec := performRequest(r, http.MethodPost, "/api/v1/auth/register", body, "", "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterEndpointDuplicate(t *testing.T) {
	setupAuthEnv(t)
	mock := newMockDB(t)
	r := newTestRouter(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	// make the error look like a postgres unique violation
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(errDuplicateForTest{})
	mock.ExpectRollback()

	body := func() *bytes.Buffer {
		return jsonBody(t, map[string]string{
			"username":   "anna_b",
			"passphrase": "long enough passphrase",
			"first_name": "Anna",
			"last_name":  "Bergman",
			"email":      "anna@example.com",
		})
	}
	rec := performRequest(r, http.MethodPost, "/api/v1/auth/register", body(), "", "application/json")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = performRequest(r, http.MethodPost, "/api/v1/auth/register", body(), "", "application/json")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

type errDuplicateForTest struct{}

func (errDuplicateForTest) Error() string {
	return `ERROR: duplicate key value violates unique constraint "idx_users_email" (SQLSTATE 23505)`
}

func TestLoginIssuesTokensAndCookie(t *testing.T) {
	setupAuthEnv(t)
	mock := newMockDB(t)
	r := newTestRouter(t)

	rec, resp := doLogin(t, r, mock)
	require.NotEmpty(t, resp["access_token"])
	require.NotEmpty(t, resp["refresh_token"])

	claims, err := accessTokens.Verify(resp["access_token"])
	require.NoError(t, err)
	assert.Equal(t, "1", claims.Subject)
	assert.Equal(t, "Anna", claims.GivenName)
	assert.Equal(t, "Bergman", claims.FamilyName)
	assert.Equal(t, "anna@example.com", claims.Email)
	assert.Len(t, claims.Nonce, 32)

	rc := refreshCookieFrom(t, rec)
	assert.Equal(t, resp["refresh_token"], rc.Value)
	assert.True(t, rc.HttpOnly)
	assert.False(t, rc.Secure) // only secure in production
}

func TestLoginFreshNoncePerSession(t *testing.T) {
	setupAuthEnv(t)
	mock := newMockDB(t)
	r := newTestRouter(t)

	_, first := doLogin(t, r, mock)
	_, second := doLogin(t, r, mock)

	c1, err := accessTokens.Verify(first["access_token"])
	require.NoError(t, err)
	c2, err := accessTokens.Verify(second["access_token"])
	require.NoError(t, err)
	assert.NotEqual(t, c1.Nonce, c2.Nonce)
}

func TestLoginWrongPassphrase(t *testing.T) {
	setupAuthEnv(t)
	mock := newMockDB(t)
	r := newTestRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRows(t, 1, "anna_b", "long enough passphrase"))

	body := jsonBody(t, map[string]string{"username": "anna_b", "passphrase": "wrong passphrase"})
	rec := performRequest(r, http.MethodPost, "/api/v1/auth/login", body, "", "application/json")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginMissingCredentials(t *testing.T) {
	setupAuthEnv(t)
	r := newTestRouter(t)

	body := jsonBody(t, map[string]string{"username": "anna_b"})
	rec := performRequest(r, http.MethodPost, "/api/v1/auth/login", body, "", "application/json")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshMintsNewAccessToken(t *testing.T) {
	setupAuthEnv(t)
	mock := newMockDB(t)
	r := newTestRouter(t)

	loginRec, loginResp := doLogin(t, r, mock)
	rc := refreshCookieFrom(t, loginRec)

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(rc)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["access_token"])

	// the principal payload carries over unchanged, nonce included
	orig, err := refreshTokens.Verify(loginResp["refresh_token"])
	require.NoError(t, err)
	minted, err := accessTokens.Verify(resp["access_token"])
	require.NoError(t, err)
	assert.Equal(t, orig.Subject, minted.Subject)
	assert.Equal(t, orig.Nonce, minted.Nonce)
	assert.Equal(t, orig.Email, minted.Email)
}

func TestRefreshMissingCookie(t *testing.T) {
	setupAuthEnv(t)
	r := newTestRouter(t)

	rec := performRequest(r, http.MethodPost, "/api/v1/auth/refresh", nil, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshInvalidToken(t *testing.T) {
	setupAuthEnv(t)
	r := newTestRouter(t)

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookie, Value: "garbage"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	setupAuthEnv(t)
	r := newTestRouter(t)

	// an access token in the refresh cookie fails the refresh-key check
	tok := issueTestToken(t, accessTokens, "1")
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookie, Value: tok})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogoutBlacklistsBothTokens(t *testing.T) {
	setupAuthEnv(t)
	mock := newMockDB(t)
	r := newTestRouter(t)

	loginRec, resp := doLogin(t, r, mock)
	rc := refreshCookieFrom(t, loginRec)

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+resp["access_token"])
	req.AddCookie(rc)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// blacklisted refresh token: 403 at the refresh endpoint
	req, _ = http.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(rc)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// blacklisted access token: 401 at the auth middleware
	rec2 := performRequest(r, http.MethodGet, "/api/v1/articles", nil, resp["access_token"], "")
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)

	// which also means the same token cannot log out twice
	rec2 = performRequest(r, http.MethodPost, "/api/v1/auth/logout", nil, resp["access_token"], "")
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)
}

func TestLogoutRequiresAuth(t *testing.T) {
	setupAuthEnv(t)
	r := newTestRouter(t)

	rec := performRequest(r, http.MethodPost, "/api/v1/auth/logout", nil, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = performRequest(r, http.MethodPost, "/api/v1/auth/logout", nil, "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIRootLinks(t *testing.T) {
	setupAuthEnv(t)
	r := newTestRouter(t)

	rec := performRequest(r, http.MethodGet, "/api/v1/", nil, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "_links")
	assert.Contains(t, rec.Body.String(), "/api/v1/auth/login")
}
