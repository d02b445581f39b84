package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClient_SendsTokenAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/settings/validate-directory", r.URL.Path)
		assert.Equal(t, "secret-token", r.Header.Get("x-access-token"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "/srv/manga", body["directory"])

		_, _ = w.Write([]byte(`{"success":true,"manga_folders":2}`))
	}))
	defer srv.Close()

	c := &apiClient{http: srv.Client(), baseURL: srv.URL + "/", token: "secret-token"}
	var out struct {
		Success      bool `json:"success"`
		MangaFolders int  `json:"manga_folders"`
	}
	require.NoError(t, c.do(context.Background(), http.MethodPost, "/api/settings/validate-directory",
		map[string]string{"directory": "/srv/manga"}, &out))
	assert.True(t, out.Success)
	assert.Equal(t, 2, out.MangaFolders)
}

func TestAPIClient_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success":false,"error":"a library refresh is already running"}`))
	}))
	defer srv.Close()

	c := &apiClient{http: srv.Client(), baseURL: srv.URL}
	err := c.do(context.Background(), http.MethodPost, "/api/refresh-library", nil, nil)

	var apiErr *apiError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "a library refresh is already running", apiErr.Message)
}

func TestTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")

	require.Error(t, saveToken(path, ""))
	require.NoError(t, saveToken(path, "abc"))

	token, err := readToken(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	require.NoError(t, clearToken(path))
	require.NoError(t, clearToken(path))
	_, err = readToken(path)
	assert.Error(t, err)
}
