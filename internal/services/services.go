package services

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/foliolabs/folio/internal/config"
	openaiinfra "github.com/foliolabs/folio/internal/infrastructure/openai"
	"github.com/foliolabs/folio/internal/infrastructure/postgres"
	redisinfra "github.com/foliolabs/folio/internal/infrastructure/redis"
	"github.com/foliolabs/folio/internal/mediajobs"
	"github.com/foliolabs/folio/internal/relay"
	"github.com/foliolabs/folio/internal/services/blog"
	"github.com/foliolabs/folio/internal/services/chat"
	"github.com/foliolabs/folio/internal/services/speech"
	"github.com/foliolabs/folio/internal/services/visits"
	"github.com/foliolabs/folio/internal/session"
)

type Services struct {
	chatService   *chat.Service
	speechService *speech.Service
	blogService   *blog.Service
	visitsService *visits.Service
	historyStore  session.KeyValueStore
}

// InitializeServices wires the service graph once at startup.
func InitializeServices() (*Services, error) {
	log.Info().Msg("Initializing core services")

	httpClient := &http.Client{}

	// History persistence: Redis when configured, in-memory otherwise.
	var historyStore session.KeyValueStore
	if redisService := redisinfra.NewService(); redisService != nil {
		historyStore = redisService
		log.Info().Msg("Conversation history backed by Redis")
	} else {
		historyStore = session.NewMemoryStore()
		log.Info().Msg("Conversation history backed by in-memory store")
	}

	// Visit counter (optional).
	var visitStore visits.Store
	if pg := postgres.NewService(); pg != nil {
		visitStore = pg
		log.Info().Msg("Visit counter backed by Postgres")
	}
	visitsService := visits.NewService(visitStore)

	// Speech synthesis (optional).
	speechService := speech.NewService()
	if speechService == nil {
		log.Warn().Msg("Speech service not configured")
	}

	blogService := blog.NewService(config.GetBlogDir(), config.GetBlogCacheTTL())

	videoClient := mediajobs.NewClient(
		httpClient,
		config.GetVideoPollInterval(),
		config.GetVideoPollMaxAttempts(),
	)

	chatService, err := chat.NewService(relay.New(httpClient), openaiinfra.NewService(), videoClient)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat service: %w", err)
	}

	log.Info().Msg("All services initialized successfully")

	return &Services{
		chatService:   chatService,
		speechService: speechService,
		blogService:   blogService,
		visitsService: visitsService,
		historyStore:  historyStore,
	}, nil
}

// GetChatService returns the chat service
func (s *Services) GetChatService() *chat.Service {
	return s.chatService
}

// GetSpeechService returns the speech service, nil when unconfigured
func (s *Services) GetSpeechService() *speech.Service {
	return s.speechService
}

// GetBlogService returns the blog service
func (s *Services) GetBlogService() *blog.Service {
	return s.blogService
}

// GetVisitsService returns the visit counter service
func (s *Services) GetVisitsService() *visits.Service {
	return s.visitsService
}

// GetHistoryStore returns the conversation persistence store
func (s *Services) GetHistoryStore() session.KeyValueStore {
	return s.historyStore
}
