package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/foliolabs/folio/internal/config"
	"github.com/foliolabs/folio/pkg/httpext"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// HandleToken issues a short-lived access token for the chat surface.
func HandleToken(w http.ResponseWriter, r *http.Request) {
	lifetime := config.GetTokenLifetime()
	now := time.Now()

	claims := jwt.RegisteredClaims{
		Issuer:    "folio",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		ID:        uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(config.GetJWTSecret())
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign access token")
		httpext.JsonError(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(lifetime.Seconds()),
	})
}
