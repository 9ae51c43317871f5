package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPI_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/manga", r.URL.Path)
		assert.Equal(t, "frieren", r.URL.Query().Get("title"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"result":"ok"}`))
	}))
	defer server.Close()

	var out struct {
		Result string `json:"result"`
	}
	err := NewAPI(server.URL+"/").Get(context.Background(), "/manga", map[string][]string{"title": {"frieren"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Result)
}

func TestAPI_StatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"envelope message", http.StatusUnauthorized, `{"ok":false,"error":"invalid token"}`, "invalid token"},
		{"plain text", http.StatusBadRequest, "Missing slug\n", "Missing slug"},
		{"empty body", http.StatusInternalServerError, "", "request failed with status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := NewAPI(server.URL).Get(context.Background(), "/x", nil, nil)
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg, err.Error())

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)
		})
	}
}

// fakeRemote mimics the /series endpoints with an in-memory map.
func fakeRemote(t *testing.T, token string) *httptest.Server {
	t.Helper()
	stored := map[string][]byte{}

	mux := http.NewServeMux()
	auth := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+token {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "unauthorized"})
				return
			}
			next(w, r)
		}
	}
	mux.HandleFunc("/series/save", auth(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Slug string          `json:"slug"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Bad body", http.StatusBadRequest)
			return
		}
		key := "series/" + body.Slug + ".json"
		stored[key] = body.Data
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "key": key, "url": "https://blob.test/" + key})
	}))
	mux.HandleFunc("/series/list", auth(func(w http.ResponseWriter, r *http.Request) {
		items := []map[string]any{}
		for key, v := range stored {
			items = append(items, map[string]any{"key": key, "url": "https://blob.test/" + key, "size": len(v), "uploadedAt": "2024-05-17T12:00:00Z"})
		}
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "items": items})
	}))
	mux.HandleFunc("/series/read", auth(func(w http.ResponseWriter, r *http.Request) {
		v, ok := stored[r.URL.Query().Get("key")]
		if !ok {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		w.Write(v)
	}))
	mux.HandleFunc("/series/delete", auth(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Slug string `json:"slug"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Bad body", http.StatusBadRequest)
			return
		}
		delete(stored, "series/"+body.Slug+".json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	return httptest.NewServer(mux)
}

func TestAPI_RemoteSeries(t *testing.T) {
	ctx := context.Background()
	server := fakeRemote(t, "s3cret")
	defer server.Close()
	api := NewAPI(server.URL, WithToken("s3cret"))

	snap := data.Snapshot{
		Version: data.SchemaVersion,
		Series:  []data.Series{{ID: "serie_1", Title: "Mon Manga", Slug: "mon-manga", Tags: []string{}}},
	}
	saved, err := api.SaveSeries(ctx, "mon-manga", snap)
	require.NoError(t, err)
	assert.Equal(t, "series/mon-manga.json", saved.Key)
	assert.Equal(t, "https://blob.test/series/mon-manga.json", saved.URL)

	items, err := api.ListSeries(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, saved.Key, items[0].Key)
	assert.True(t, items[0].UploadedAt.Equal(time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)))

	got, err := api.ReadSeries(ctx, saved.Key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap, *got)

	require.NoError(t, api.DeleteSeries(ctx, "mon-manga"))

	got, err = api.ReadSeries(ctx, saved.Key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAPI_RemoteUnauthorized(t *testing.T) {
	server := fakeRemote(t, "s3cret")
	defer server.Close()

	_, err := NewAPI(server.URL, WithToken("wrong")).ListSeries(context.Background())
	assert.EqualError(t, err, "unauthorized")
}

func TestAPI_EnvelopeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error":"bucket unavailable"}`))
	}))
	defer server.Close()

	err := NewAPI(server.URL).DeleteSeries(context.Background(), "x")
	assert.EqualError(t, err, "bucket unavailable")
}

func TestAPI_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	api := NewAPI("")
	body, contentType, err := api.Fetch(context.Background(), server.URL+"/page.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), body)
	assert.Equal(t, "image/png", contentType)

	_, _, err = api.Fetch(context.Background(), server.URL+"/missing.png")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for name, want := range tests {
		assert.Equal(t, want, ParseLevel(name), name)
	}
}

func TestHandlerDropsZeroAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, true, slog.LevelDebug))

	logger.Debug("stored", "key", "kl_series", "empty", "", "count", 0, "status", 0)
	out := buf.String()

	assert.Contains(t, out, "stored")
	assert.Contains(t, out, "key=kl_series")
	assert.Contains(t, out, "status=0")
	assert.NotContains(t, out, "empty=")
	assert.NotContains(t, out, "count=")
}
