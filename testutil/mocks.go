package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// MockCatalogServer creates a test server that mocks a music catalog API by
// path. Register handlers per path; unregistered paths return 404.
type MockCatalogServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockCatalogServer creates a new mock catalog API server.
func NewMockCatalogServer(t *testing.T) *MockCatalogServer {
	t.Helper()
	m := &MockCatalogServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if handler, ok := m.Handlers[key]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockOAuthTokenResponse adds a handler for the client-credentials token
// endpoint at /api/token.
func (m *MockCatalogServer) MockOAuthTokenResponse(accessToken string, expiresIn int) {
	m.Handlers["/api/token"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"access_token": accessToken,
			"expires_in":   expiresIn,
			"token_type":   "Bearer",
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockSpotifyTrack adds a handler for the Spotify track lookup endpoint.
func (m *MockCatalogServer) MockSpotifyTrack(id, name, artist, album string) {
	m.Handlers["/v1/tracks/"+id] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"id":   id,
			"name": name,
			"artists": []map[string]string{
				{"name": artist},
			},
			"album": map[string]interface{}{
				"name":   album,
				"images": []map[string]interface{}{},
			},
			"external_urls": map[string]string{
				"spotify": "https://open.spotify.com/track/" + id,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockSpotifySearch adds a handler for the Spotify search endpoint.
func (m *MockCatalogServer) MockSpotifySearch(items []map[string]interface{}) {
	m.Handlers["/v1/search"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"tracks": map[string]interface{}{
				"items": items,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockITunesLookup adds a handler for the iTunes lookup endpoint.
func (m *MockCatalogServer) MockITunesLookup(results []map[string]interface{}) {
	m.Handlers["/lookup"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"resultCount": len(results),
			"results":     results,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockITunesSearch adds a handler for the iTunes search endpoint.
func (m *MockCatalogServer) MockITunesSearch(results []map[string]interface{}) {
	m.Handlers["/search"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"resultCount": len(results),
			"results":     results,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// ITunesSong builds a song result in the iTunes lookup/search shape.
func ITunesSong(trackID int64, name, artist, album string) map[string]interface{} {
	return map[string]interface{}{
		"wrapperType":    "track",
		"kind":           "song",
		"trackId":        trackID,
		"trackName":      name,
		"artistName":     artist,
		"collectionName": album,
		"trackViewUrl":   "https://music.apple.com/us/song/" + name,
	}
}
