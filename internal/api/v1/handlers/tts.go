package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/foliolabs/folio/internal/services/speech"
	"github.com/foliolabs/folio/pkg/httpext"
)

type ttsRequest struct {
	Text        string `json:"text" validate:"required"`
	Voice       string `json:"voice"`
	AudioFormat string `json:"audioFormat"`
	SampleRate  int    `json:"sampleRate"`
}

type ttsResponse struct {
	AudioURI  string `json:"audioUri"`
	AudioSize int    `json:"audioSize"`
}

// HandleTTS synthesizes speech for a piece of text and returns the audio
// as a data URI.
func HandleTTS(speechService *speech.Service, w http.ResponseWriter, r *http.Request) {
	if speechService == nil {
		httpext.JsonError(w, "Speech synthesis is not configured", http.StatusServiceUnavailable)
		return
	}

	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpext.JsonError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(req); err != nil {
		httpext.JsonError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	result, err := speechService.Synthesize(r.Context(), speech.Request{
		Text:       req.Text,
		Voice:      req.Voice,
		Format:     req.AudioFormat,
		SampleRate: req.SampleRate,
	})
	if err != nil {
		log.Error().Err(err).Msg("Speech synthesis failed")
		httpext.JsonError(w, err.Error(), statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ttsResponse{
		AudioURI:  result.AudioURI,
		AudioSize: result.AudioSize,
	})
}
