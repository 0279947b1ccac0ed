package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tunebridge/backend/db"
	"github.com/tunebridge/backend/telemetry"
)

type channelActionRequest struct {
	Channel string `json:"channel"`
	Action  string `json:"action"` // "subscribe" or "unsubscribe"
}

// HandleAdminChannels manages the per-channel subscription state.
// GET lists subscribed channels; POST flips a channel on or off.
func (h *Handlers) HandleAdminChannels(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		http.Error(w, "database not configured", http.StatusServiceUnavailable)
		return
	}

	switch r.Method {
	case http.MethodGet:
		channels, err := db.ListSubscribedChannels(r.Context(), h.db)
		if err != nil {
			telemetry.LoggerWithCorr(r.Context()).Warn("failed to list channels", "err", err)
			http.Error(w, "query failed", http.StatusInternalServerError)
			return
		}
		if channels == nil {
			channels = []string{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"channels": channels})

	case http.MethodPost:
		var req channelActionRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxConvertBodyBytes)).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		req.Channel = strings.ToLower(strings.TrimSpace(req.Channel))
		if req.Channel == "" {
			http.Error(w, "channel required", http.StatusBadRequest)
			return
		}

		var err error
		switch req.Action {
		case "subscribe":
			err = db.SubscribeChannel(r.Context(), h.db, req.Channel, "admin")
		case "unsubscribe":
			err = db.UnsubscribeChannel(r.Context(), h.db, req.Channel, "admin")
		default:
			http.Error(w, "action must be subscribe or unsubscribe", http.StatusBadRequest)
			return
		}
		if err != nil {
			telemetry.LoggerWithCorr(r.Context()).Warn("channel action failed", "channel", req.Channel, "action", req.Action, "err", err)
			http.Error(w, "update failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"channel": req.Channel, "action": req.Action, "status": "ok"})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
