package blog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// ErrPostNotFound is returned for slugs with no published post.
var ErrPostNotFound = errors.New("post not found")

// Post is one published blog entry.
type Post struct {
	Slug    string    `json:"slug"`
	Title   string    `json:"title"`
	Date    time.Time `json:"date"`
	Tags    []string  `json:"tags,omitempty"`
	Summary string    `json:"summary,omitempty"`
	Body    string    `json:"body"`
}

type frontMatter struct {
	Title   string   `yaml:"title"`
	Date    string   `yaml:"date"`
	Tags    []string `yaml:"tags"`
	Summary string   `yaml:"summary"`
	Draft   bool     `yaml:"draft"`
}

// Service reads markdown posts with YAML front matter from a directory.
// The parsed index is held in an explicit cache owned by the service and
// reloaded when its TTL has passed; the TTL is checked on read.
type Service struct {
	dir string
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	posts    []Post
	bySlug   map[string]Post
	loadedAt time.Time
}

func NewService(dir string, ttl time.Duration) *Service {
	return &Service{
		dir: dir,
		ttl: ttl,
		now: time.Now,
	}
}

// List returns published posts, newest first.
func (s *Service) List() ([]Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refreshLocked(); err != nil {
		return nil, err
	}
	out := make([]Post, len(s.posts))
	copy(out, s.posts)
	return out, nil
}

// Get returns a single post by slug.
func (s *Service) Get(slug string) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refreshLocked(); err != nil {
		return Post{}, err
	}
	post, ok := s.bySlug[slug]
	if !ok {
		return Post{}, ErrPostNotFound
	}
	return post, nil
}

func (s *Service) refreshLocked() error {
	if !s.loadedAt.IsZero() && s.now().Sub(s.loadedAt) < s.ttl {
		return nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read blog directory %s: %w", s.dir, err)
	}

	posts := make([]Post, 0, len(entries))
	bySlug := make(map[string]Post, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read post %s: %w", entry.Name(), err)
		}

		post, draft, err := parsePost(entry.Name(), string(raw))
		if err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping unparsable post")
			continue
		}
		if draft {
			continue
		}

		posts = append(posts, post)
		bySlug[post.Slug] = post
	}

	sort.Slice(posts, func(i, j int) bool { return posts[i].Date.After(posts[j].Date) })

	s.posts = posts
	s.bySlug = bySlug
	s.loadedAt = s.now()

	log.Debug().Int("count", len(posts)).Msg("Reloaded blog index")
	return nil
}

func parsePost(filename, raw string) (Post, bool, error) {
	const delim = "---"

	slug := strings.TrimSuffix(filename, ".md")

	rest, found := strings.CutPrefix(raw, delim+"\n")
	if !found {
		// No front matter: the whole file is the body.
		return Post{Slug: slug, Title: slug, Body: strings.TrimSpace(raw)}, false, nil
	}

	meta, body, found := strings.Cut(rest, "\n"+delim+"\n")
	if !found {
		return Post{}, false, fmt.Errorf("unterminated front matter in %s", filename)
	}

	var fm frontMatter
	if err := yaml.Unmarshal([]byte(meta), &fm); err != nil {
		return Post{}, false, fmt.Errorf("invalid front matter in %s: %w", filename, err)
	}

	post := Post{
		Slug:    slug,
		Title:   fm.Title,
		Tags:    fm.Tags,
		Summary: fm.Summary,
		Body:    strings.TrimSpace(body),
	}
	if post.Title == "" {
		post.Title = slug
	}
	if fm.Date != "" {
		date, err := time.Parse("2006-01-02", fm.Date)
		if err != nil {
			return Post{}, false, fmt.Errorf("invalid date %q in %s: %w", fm.Date, filename, err)
		}
		post.Date = date
	}
	return post, fm.Draft, nil
}
