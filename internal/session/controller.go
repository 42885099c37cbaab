package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/foliolabs/folio/internal/gateway"
	"github.com/foliolabs/folio/internal/mediajobs"
	"github.com/foliolabs/folio/internal/relay"
)

// SpeechMarker prefixes a submission that is a direct text-to-speech request
// rather than a chat turn. The remainder of the text never reaches the
// model gateway.
const SpeechMarker = "TTS>>"

// ErrBusy rejects a submission while another request is in flight for the
// same conversation. Requests are not queued.
var ErrBusy = errors.New("a generation request is already in flight")

// Request is one user submission routed by the controller.
type Request struct {
	Text              string
	Kind              MediaKind
	Provider          string
	Model             string
	Credential        string
	BaseURL           string
	ExtendedReasoning bool
	WebAugmentation   bool
}

// Backend performs the actual generation work for a routed submission.
type Backend interface {
	StreamText(ctx context.Context, req Request) (<-chan relay.Event, error)
	GenerateImage(ctx context.Context, req Request) (string, error)
	GenerateVideo(ctx context.Context, req Request) (string, error)
}

// SpeechPlayer synthesizes and delivers speech audio for a TTS submission.
type SpeechPlayer interface {
	Speak(ctx context.Context, text string) error
}

// Options tune a controller. Zero values fall back to defaults.
type Options struct {
	HistoryLimit int
	HistoryTTL   time.Duration
	// OnDelta observes each streamed content delta as it is applied to the
	// assistant message under construction.
	OnDelta func(delta string)
}

// Controller owns the ordered message list of one conversation and routes
// each submission to the matching backend operation. At most one request is
// in flight at a time; it is cancellable; terminal errors become synthetic
// assistant messages.
type Controller struct {
	id      string
	backend Backend
	store   KeyValueStore
	speech  SpeechPlayer
	opts    Options

	mu       sync.Mutex
	messages []Message
	cancel   context.CancelFunc
}

func NewController(id string, backend Backend, store KeyValueStore, speech SpeechPlayer, opts Options) *Controller {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 200
	}
	if opts.HistoryTTL <= 0 {
		opts.HistoryTTL = 168 * time.Hour
	}
	return &Controller{
		id:      id,
		backend: backend,
		store:   store,
		speech:  speech,
		opts:    opts,
	}
}

type snapshot struct {
	SavedAt  time.Time `json:"savedAt"`
	Messages []Message `json:"messages"`
}

func (c *Controller) storeKey() string {
	return "conversation:" + c.id
}

// Restore loads the persisted history for this conversation. A missing or
// expired snapshot leaves the conversation empty.
func (c *Controller) Restore(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	raw, err := c.store.Get(ctx, c.storeKey())
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load conversation %s: %w", c.id, err)
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		log.Warn().Err(err).Str("conversation_id", c.id).Msg("Dropping unreadable history snapshot")
		_ = c.store.Delete(ctx, c.storeKey())
		return nil
	}
	if time.Since(snap.SavedAt) > c.opts.HistoryTTL {
		_ = c.store.Delete(ctx, c.storeKey())
		return nil
	}

	c.mu.Lock()
	c.messages = snap.Messages
	c.mu.Unlock()
	return nil
}

// Messages returns a copy of the conversation in order.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Clear drops the conversation history in memory and in the store.
func (c *Controller) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.messages = nil
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	return c.store.Delete(ctx, c.storeKey())
}

// Cancel aborts the in-flight request, if any. Safe to call at any time;
// calling with nothing in flight is a no-op. The partially-built assistant
// message is left in place.
func (c *Controller) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Submit routes one user submission. It blocks until the request reaches a
// terminal state and returns ErrBusy when another request is in flight.
// Generation failures do not propagate: they are appended to the
// conversation as assistant messages.
func (c *Controller) Submit(ctx context.Context, req Request) error {
	if strings.HasPrefix(req.Text, SpeechMarker) {
		return c.speak(ctx, strings.TrimSpace(strings.TrimPrefix(req.Text, SpeechMarker)))
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return ErrBusy
	}
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	defer func() {
		cancel()
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
	}()

	c.append(Message{Role: RoleUser, Content: req.Text, Kind: KindText})

	switch req.Kind {
	case KindImage:
		c.generateMedia(reqCtx, req, KindImage)
	case KindVideo:
		c.generateMedia(reqCtx, req, KindVideo)
	default:
		c.streamText(reqCtx, req)
	}
	return nil
}

// speak bypasses the model gateway entirely.
func (c *Controller) speak(ctx context.Context, text string) error {
	if c.speech == nil {
		c.appendFailure(errors.New("speech synthesis is not configured"))
		return nil
	}
	if err := c.speech.Speak(ctx, text); err != nil {
		c.appendFailure(err)
	}
	return nil
}

func (c *Controller) streamText(ctx context.Context, req Request) {
	events, err := c.backend.StreamText(ctx, req)
	if err != nil {
		c.appendFailure(err)
		return
	}

	// The assistant message is created lazily on the first delta so a
	// failed or cancelled stream with no content leaves no empty bubble.
	assistantID := ""

	for ev := range events {
		switch ev.Type {
		case relay.EventContent:
			if assistantID == "" {
				assistantID = c.append(Message{Role: RoleAssistant, Kind: KindText})
			}
			c.appendDelta(assistantID, ev.Delta)
			if c.opts.OnDelta != nil {
				c.opts.OnDelta(ev.Delta)
			}
		case relay.EventError:
			c.appendFailure(errors.New(ev.Message))
			return
		case relay.EventDone:
			return
		}
	}
	// Channel closed without a terminal event: the request was cancelled.
	// Whatever content streamed in stays; nothing is surfaced to the user.
}

func (c *Controller) generateMedia(ctx context.Context, req Request, kind MediaKind) {
	var url string
	var err error
	if kind == KindImage {
		url, err = c.backend.GenerateImage(ctx, req)
	} else {
		url, err = c.backend.GenerateVideo(ctx, req)
	}
	if err != nil {
		c.appendFailure(err)
		return
	}

	msg := Message{Role: RoleAssistant, Content: req.Text, Kind: kind}
	if kind == KindImage {
		msg.ImageURL = url
	} else {
		msg.VideoURL = url
	}
	c.append(msg)
}

// append adds a message, stamps it, and persists the snapshot. Returns the
// message id.
func (c *Controller) append(msg Message) string {
	msg.ID = uuid.New().String()
	msg.Timestamp = time.Now()
	if msg.Kind == "" {
		msg.Kind = KindText
	}

	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()

	c.persist()
	return msg.ID
}

// appendDelta grows the content of the message with the given id.
func (c *Controller) appendDelta(id, delta string) {
	c.mu.Lock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].ID == id {
			c.messages[i].Content += delta
			break
		}
	}
	c.mu.Unlock()

	c.persist()
}

// appendFailure converts a terminal error into a user-visible assistant
// message. Cancellation is swallowed: it is not a failure.
func (c *Controller) appendFailure(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	log.Warn().Err(err).Str("conversation_id", c.id).Msg("Generation request failed")
	c.append(Message{Role: RoleAssistant, Content: userFacingMessage(err), Kind: KindText})
}

func userFacingMessage(err error) string {
	var cfgErr *gateway.ConfigurationError
	var credErr *gateway.MissingCredentialError
	var httpErr *gateway.UpstreamHTTPError
	var timeoutErr *gateway.TimeoutError
	var malformedErr *gateway.MalformedResponseError
	var genErr *mediajobs.GenerationFailedError

	switch {
	case errors.As(err, &cfgErr):
		return fmt.Sprintf("Sorry, %q is not a provider I know about.", cfgErr.Provider)
	case errors.As(err, &credErr):
		return fmt.Sprintf("No API key is available for %s. Add one in settings and try again.", credErr.Provider)
	case errors.As(err, &timeoutErr):
		return "The generation is taking longer than expected and timed out. Please try again."
	case errors.As(err, &genErr):
		return fmt.Sprintf("Generation failed upstream: %s", genErr.Message)
	case errors.As(err, &httpErr):
		return fmt.Sprintf("The provider returned an error (status %d). Please try again.", httpErr.Status)
	case errors.As(err, &malformedErr):
		return "The provider sent back a response I couldn't understand."
	default:
		return fmt.Sprintf("Something went wrong: %v", err)
	}
}

// persist writes the bounded snapshot. Runs on a background context so a
// cancelled request still gets its partial content saved.
func (c *Controller) persist() {
	if c.store == nil {
		return
	}

	c.mu.Lock()
	msgs := c.messages
	if len(msgs) > c.opts.HistoryLimit {
		msgs = msgs[len(msgs)-c.opts.HistoryLimit:]
	}
	snap := snapshot{SavedAt: time.Now(), Messages: append([]Message(nil), msgs...)}
	c.mu.Unlock()

	raw, err := json.Marshal(snap)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", c.id).Msg("Failed to encode history snapshot")
		return
	}

	ctx, cancelPersist := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPersist()
	if err := c.store.Set(ctx, c.storeKey(), string(raw), c.opts.HistoryTTL); err != nil {
		log.Error().Err(err).Str("conversation_id", c.id).Msg("Failed to persist history snapshot")
	}
}
