package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/foliolabs/folio/internal/gateway"
)

type providerInfo struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Models      []string `json:"models"`
	HasKey      bool     `json:"hasKey"`
}

// HandleListProviders returns the chat providers the client can pick from.
// HasKey tells the client whether a request can omit its own credential.
func HandleListProviders(w http.ResponseWriter, r *http.Request) {
	providers := gateway.Providers()
	out := make([]providerInfo, 0, len(providers))
	for _, p := range providers {
		out = append(out, providerInfo{
			ID:          string(p.Provider),
			DisplayName: p.DisplayName,
			Models:      p.Models,
			HasKey:      p.DefaultKey() != "",
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
