package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolabs/folio/internal/services/blog"
)

func newBlogService(t *testing.T) *blog.Service {
	t.Helper()
	dir := t.TempDir()
	post := `---
title: First Post
date: 2026-01-15
tags: [go, web]
summary: An opening note.
---
Hello from the blog.
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "first-post.md"), []byte(post), 0o644))
	return blog.NewService(dir, time.Minute)
}

func TestHandleListPosts(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/blog", nil)
	w := httptest.NewRecorder()

	HandleListPosts(newBlogService(t), w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var items []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "first-post", items[0]["slug"])
	assert.Equal(t, "First Post", items[0]["title"])
	assert.Equal(t, "2026-01-15", items[0]["date"])
	// List items never carry the body.
	assert.NotContains(t, items[0], "body")
}

func TestHandleGetPost(t *testing.T) {
	router := mux.NewRouter()
	svc := newBlogService(t)
	router.HandleFunc("/v1/blog/{slug}", func(w http.ResponseWriter, r *http.Request) {
		HandleGetPost(svc, w, r)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/blog/first-post", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var post blog.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	assert.Equal(t, "First Post", post.Title)
	assert.Contains(t, post.Body, "Hello from the blog.")
}

func TestHandleGetPostNotFound(t *testing.T) {
	router := mux.NewRouter()
	svc := newBlogService(t)
	router.HandleFunc("/v1/blog/{slug}", func(w http.ResponseWriter, r *http.Request) {
		HandleGetPost(svc, w, r)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/blog/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
