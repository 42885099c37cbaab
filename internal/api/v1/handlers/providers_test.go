package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleListProviders(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ZHIPU_API_KEY", "")

	req := httptest.NewRequest(http.MethodGet, "/v1/providers", nil)
	w := httptest.NewRecorder()

	HandleListProviders(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var providers []providerInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &providers))
	require.Len(t, providers, 4)

	byID := make(map[string]providerInfo, len(providers))
	for _, p := range providers {
		byID[p.ID] = p
	}
	require.Contains(t, byID, "openai")
	assert.True(t, byID["openai"].HasKey)
	assert.NotEmpty(t, byID["openai"].Models)
	require.Contains(t, byID, "zhipu")
	assert.False(t, byID["zhipu"].HasKey)
}
