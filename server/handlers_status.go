package server

import (
	"encoding/json"
	"net/http"

	"github.com/tunebridge/backend/convert"
	"github.com/tunebridge/backend/db"
	"github.com/tunebridge/backend/telemetry"
)

// HandleStatus reports a runtime snapshot: registered catalogs, subscribed
// channels and in-flight lookup pressure.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := map[string]interface{}{
		"active_lookups":  convert.ActiveLookups(),
		"max_lookups":     convert.MaxConcurrentLookups(),
		"tracing_enabled": telemetry.IsTracingEnabled(),
	}

	if h.converter != nil {
		platforms := make([]string, 0, len(h.converter.Catalogs))
		for _, c := range h.converter.Catalogs {
			platforms = append(platforms, string(c.Platform()))
		}
		status["platforms"] = platforms
	}

	if h.db != nil {
		channels, err := db.ListSubscribedChannels(r.Context(), h.db)
		if err != nil {
			telemetry.LoggerWithCorr(r.Context()).Warn("failed to list channels for status", "err", err)
		} else {
			if channels == nil {
				channels = []string{}
			}
			status["subscribed_channels"] = channels
			telemetry.SetSubscribedChannels(len(channels))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}
