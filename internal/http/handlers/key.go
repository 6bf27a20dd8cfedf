package handlers

import (
	"encoding/json"
	"net/http"
)

type setKeyRequest struct {
	APIKey string `json:"api_key"`
}

// SetKey stores the Gemini API key for subsequent generation calls. This is
// the manage-key affordance; the key is held in memory only.
func (a *App) SetKey(w http.ResponseWriter, r *http.Request) {
	var req setKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := a.Credentials.SetGeminiAPIKey(req.APIKey); err != nil {
		a.error(w, http.StatusBadRequest, "validation", err.Error())
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "key updated"})
}
