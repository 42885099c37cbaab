package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	v1mware "github.com/foliolabs/folio/internal/api/v1/middleware"
	"github.com/foliolabs/folio/internal/config"
	"github.com/foliolabs/folio/internal/services/chat"
	"github.com/foliolabs/folio/internal/services/speech"
	"github.com/foliolabs/folio/internal/session"
	"github.com/foliolabs/folio/pkg/httpext"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsClientMessage is one frame from the browser.
type wsClientMessage struct {
	Type              string `json:"type"`
	Content           string `json:"content,omitempty"`
	Kind              string `json:"kind,omitempty"`
	Provider          string `json:"provider,omitempty"`
	Model             string `json:"model,omitempty"`
	Credential        string `json:"credential,omitempty"`
	BaseURL           string `json:"baseUrl,omitempty"`
	ExtendedReasoning bool   `json:"extendedReasoning,omitempty"`
	WebAugmentation   bool   `json:"webAugmentation,omitempty"`
}

// wsServerMessage is one frame to the browser.
type wsServerMessage struct {
	Type      string            `json:"type"`
	Delta     string            `json:"delta,omitempty"`
	Message   *session.Message  `json:"message,omitempty"`
	Messages  []session.Message `json:"messages,omitempty"`
	AudioURI  string            `json:"audioUri,omitempty"`
	AudioSize int               `json:"audioSize,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// wsConn serializes writes; the read loop and submission goroutines both
// produce frames.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(msg wsServerMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(msg); err != nil {
		log.Debug().Err(err).Msg("Websocket write failed")
	}
}

// wsSpeech delivers synthesized audio over the websocket.
type wsSpeech struct {
	svc  *speech.Service
	conn *wsConn
}

func (s *wsSpeech) Speak(ctx context.Context, text string) error {
	result, err := s.svc.Synthesize(ctx, speech.Request{Text: text})
	if err != nil {
		return err
	}
	s.conn.send(wsServerMessage{
		Type:      "audio",
		AudioURI:  result.AudioURI,
		AudioSize: result.AudioSize,
	})
	return nil
}

// HandleChatWS runs one conversation over a websocket. The client sends
// message, cancel, and clear frames; the server answers with history,
// delta, message, audio, error, and done frames.
func HandleChatWS(chatService *chat.Service, speechService *speech.Service, store session.KeyValueStore, w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on upgrade requests, so the token rides
	// in the query string.
	if err := v1mware.ValidateToken(r.URL.Query().Get("access_token")); err != nil {
		log.Debug().Err(err).Msg("Rejected websocket connection")
		httpext.JsonError(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}
	defer conn.Close()

	conversationID := r.URL.Query().Get("conversation")
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	ws := &wsConn{conn: conn}

	var speechPlayer session.SpeechPlayer
	if speechService != nil {
		speechPlayer = &wsSpeech{svc: speechService, conn: ws}
	}

	controller := session.NewController(conversationID, chatService.SessionBackend(), store, speechPlayer, session.Options{
		HistoryLimit: config.GetHistoryLimit(),
		HistoryTTL:   config.GetHistoryTTL(),
		OnDelta: func(delta string) {
			ws.send(wsServerMessage{Type: "delta", Delta: delta})
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := controller.Restore(ctx); err != nil {
		log.Warn().Err(err).Str("conversation_id", conversationID).Msg("Failed to restore conversation history")
	}
	ws.send(wsServerMessage{Type: "history", Messages: controller.Messages()})

	log.Info().
		Str("conversation_id", conversationID).
		Str("client_ip", r.RemoteAddr).
		Msg("Websocket conversation opened")

	var wg sync.WaitGroup
	defer wg.Wait()
	// The in-flight request must not outlive the connection.
	defer controller.Cancel()

	for {
		var msg wsClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("conversation_id", conversationID).Msg("Websocket closed unexpectedly")
			}
			return
		}

		switch msg.Type {
		case "message":
			req := session.Request{
				Text:              msg.Content,
				Kind:              session.MediaKind(msg.Kind),
				Provider:          msg.Provider,
				Model:             msg.Model,
				Credential:        msg.Credential,
				BaseURL:           msg.BaseURL,
				ExtendedReasoning: msg.ExtendedReasoning,
				WebAugmentation:   msg.WebAugmentation,
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := controller.Submit(ctx, req); err != nil {
					if errors.Is(err, session.ErrBusy) {
						ws.send(wsServerMessage{Type: "error", Error: "A request is already in flight"})
						return
					}
					ws.send(wsServerMessage{Type: "error", Error: err.Error()})
					return
				}
				msgs := controller.Messages()
				if len(msgs) > 0 && msgs[len(msgs)-1].Role == session.RoleAssistant {
					last := msgs[len(msgs)-1]
					ws.send(wsServerMessage{Type: "message", Message: &last})
				}
				ws.send(wsServerMessage{Type: "done"})
			}()
		case "cancel":
			controller.Cancel()
		case "clear":
			if err := controller.Clear(ctx); err != nil {
				log.Warn().Err(err).Str("conversation_id", conversationID).Msg("Failed to clear conversation")
			}
			ws.send(wsServerMessage{Type: "history", Messages: controller.Messages()})
		default:
			ws.send(wsServerMessage{Type: "error", Error: "Unknown message type"})
		}
	}
}
