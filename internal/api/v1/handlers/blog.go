package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/foliolabs/folio/internal/services/blog"
	"github.com/foliolabs/folio/pkg/httpext"
)

// HandleListPosts returns the published posts, newest first.
func HandleListPosts(blogService *blog.Service, w http.ResponseWriter, r *http.Request) {
	posts, err := blogService.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list blog posts")
		httpext.JsonError(w, "Failed to load posts", http.StatusInternalServerError)
		return
	}

	// The list omits bodies; readers fetch individual posts by slug.
	type listItem struct {
		Slug    string   `json:"slug"`
		Title   string   `json:"title"`
		Date    string   `json:"date"`
		Tags    []string `json:"tags,omitempty"`
		Summary string   `json:"summary,omitempty"`
	}
	items := make([]listItem, 0, len(posts))
	for _, p := range posts {
		items = append(items, listItem{
			Slug:    p.Slug,
			Title:   p.Title,
			Date:    p.Date.Format("2006-01-02"),
			Tags:    p.Tags,
			Summary: p.Summary,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

// HandleGetPost returns one post by slug.
func HandleGetPost(blogService *blog.Service, w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	post, err := blogService.Get(slug)
	if errors.Is(err, blog.ErrPostNotFound) {
		httpext.JsonError(w, "Post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Failed to load blog post")
		httpext.JsonError(w, "Failed to load post", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(post)
}
