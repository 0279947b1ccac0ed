package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/tunebridge/backend/convert"
	"github.com/tunebridge/backend/db"
	"github.com/tunebridge/backend/telemetry"
)

const maxConvertBodyBytes = 4 << 10

type convertRequest struct {
	URL string `json:"url"`
}

type convertResponse struct {
	*convert.Conversion
	Reply string `json:"reply"`
}

// HandleConvert resolves a music link and returns the per-platform matches.
// POST only; body: {"url": "<music link>"}.
func (h *Handlers) HandleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.converter == nil {
		http.Error(w, "conversion not configured", http.StatusServiceUnavailable)
		return
	}

	var req convertRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxConvertBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	link, found := convert.FindLink(req.URL)
	if !found {
		http.Error(w, "url required", http.StatusBadRequest)
		return
	}
	if _, _, ok := h.converter.SourceFor(link); !ok {
		http.Error(w, "unrecognized music link", http.StatusUnprocessableEntity)
		return
	}

	conv, err := h.converter.Convert(r.Context(), link)
	if err != nil {
		telemetry.LoggerWithCorr(r.Context()).Warn("conversion failed", "link", link, "err", err)
		http.Error(w, "conversion failed", http.StatusBadGateway)
		return
	}
	h.converter.Record(r.Context(), "", "api", conv)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(convertResponse{
		Conversion: conv,
		Reply:      convert.FormatReply(conv),
	})
}

// HandleConversionsList returns recent conversion audit rows, newest first.
// Optional query param: limit (default 50, max 200).
func (h *Handlers) HandleConversionsList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.db == nil {
		http.Error(w, "database not configured", http.StatusServiceUnavailable)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	rows, err := db.RecentConversions(r.Context(), h.db, limit)
	if err != nil {
		telemetry.LoggerWithCorr(r.Context()).Warn("failed to list conversions", "err", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []db.Conversion{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"conversions": rows})
}
