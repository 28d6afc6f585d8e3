package main

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginMe(t *testing.T) {
	e := newTestEnv(t, "")

	resp := e.do(t, http.MethodPost, "/api/auth/register", "", registerReq{
		Username: "asha", Email: " Asha@Example.com ", Password: "s3cret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/auth/register", "", registerReq{
		Username: "asha2", Email: "asha@example.com", Password: "other",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/auth/login", "", loginReq{Email: "ASHA@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/auth/login", "", loginReq{Email: "ASHA@example.com", Password: "s3cret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tok := decode[tokenResp](t, resp).Token
	require.NotEmpty(t, tok)

	resp = e.do(t, http.MethodGet, "/api/me", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"email":"asha@example.com"`)
	assert.NotContains(t, string(body), "asswordHash")
	assert.NotContains(t, string(body), "s3cret")
}

func TestRegisterRequiresAllFields(t *testing.T) {
	e := newTestEnv(t, "")
	resp := e.do(t, http.MethodPost, "/api/auth/register", "", registerReq{Email: "a@b.c"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginUnknownEmail(t *testing.T) {
	e := newTestEnv(t, "")
	resp := e.do(t, http.MethodPost, "/api/auth/login", "", loginReq{Email: "ghost@example.com", Password: "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRejectBadTokens(t *testing.T) {
	e := newTestEnv(t, "")
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/api/me", "", nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/api/me", "garbage", nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/api/fields", "a.b.c", nil).StatusCode)
}
