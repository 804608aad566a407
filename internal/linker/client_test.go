package linker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jlonij/dac-web/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newServices starts a fake linker, NER and OCR service on one server.
func newServices(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/linker", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		switch q.Get("ne") {
		case "Amsterdam":
			if q.Get("candidates") == "true" {
				_, _ = w.Write([]byte(`{"linkedNEs":[{"text":"Amsterdam","link":"http://nl.dbpedia.org/resource/Amsterdam","candidates":[{"id":"http://nl.dbpedia.org/resource/Amsterdam","label":"Amsterdam","prob":0.93}]}]}`))
				return
			}
			_, _ = w.Write([]byte(`{"linkedNEs":[{"text":"Amsterdam","link":"http://nl.dbpedia.org/resource/Amsterdam"}]}`))
		case "Jansen":
			_, _ = w.Write([]byte(`{"linkedNEs":[{"text":"Jansen","reason":"Too ambiguous"}]}`))
		case "empty":
			_, _ = w.Write([]byte(`{"linkedNEs":[]}`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("/ner", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("url") != "http://resolver.kb.nl/a" {
			_, _ = w.Write([]byte(`{"entities":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"entities":[{"ne":"Amsterdam","type":"location"},{"ne":"Drees","type":"person"}]}`))
	})
	mux.HandleFunc("/article:ocr", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?><text><title>Nieuws</title><p>Gisteren  in Amsterdam.</p></text>`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()

	c, err := NewClient(Options{
		LinkerURL: srv.URL + "/linker",
		NERURL:    srv.URL + "/ner",
		OCRSuffix: ":ocr",
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestClientLink(t *testing.T) {
	t.Parallel()

	srv := newServices(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	t.Run("returns link", func(t *testing.T) {
		t.Parallel()

		pred, err := c.Link(ctx, "http://resolver.kb.nl/a", "Amsterdam")
		require.NoError(t, err)
		assert.Equal(t, "http://nl.dbpedia.org/resource/Amsterdam", pred.Link)
		assert.True(t, pred.HasLink())
	})

	t.Run("returns reason without link", func(t *testing.T) {
		t.Parallel()

		pred, err := c.Link(ctx, "http://resolver.kb.nl/a", "Jansen")
		require.NoError(t, err)
		assert.False(t, pred.HasLink())
		assert.Equal(t, "Too ambiguous", pred.Value())
	})

	t.Run("empty result", func(t *testing.T) {
		t.Parallel()

		_, err := c.Link(ctx, "http://resolver.kb.nl/a", "empty")
		assert.ErrorIs(t, err, ErrEmptyResult)
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()

		_, err := c.Link(ctx, "http://resolver.kb.nl/a", "unknown")
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	})

	t.Run("candidates", func(t *testing.T) {
		t.Parallel()

		cands, err := c.Candidates(ctx, "http://resolver.kb.nl/a", "Amsterdam")
		require.NoError(t, err)
		require.Len(t, cands, 1)
		assert.Equal(t, model.Candidate{ID: "http://nl.dbpedia.org/resource/Amsterdam", Label: "Amsterdam", Probability: 0.93}, cands[0])
	})
}

func TestClientEntities(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, newServices(t))

	entities, err := c.Entities(context.Background(), "http://resolver.kb.nl/a")
	require.NoError(t, err)
	assert.Equal(t, []model.Entity{
		{NE: "Amsterdam", Type: "location"},
		{NE: "Drees", Type: "person"},
	}, entities)

	entities, err = c.Entities(context.Background(), "http://resolver.kb.nl/other")
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestClientArticleText(t *testing.T) {
	t.Parallel()

	srv := newServices(t)
	c := newTestClient(t, srv)

	text, err := c.ArticleText(context.Background(), srv.URL+"/article")
	require.NoError(t, err)
	assert.Equal(t, "Nieuws\nGisteren in Amsterdam.", text)
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		proxy   string
		wantErr bool
	}{
		{name: "no proxy", proxy: ""},
		{name: "proxy", proxy: "127.0.0.1:9050"},
		{name: "proxy with credentials", proxy: "user:secret@127.0.0.1:1080"},
		{name: "missing port", proxy: "127.0.0.1", wantErr: true},
		{name: "port out of range", proxy: "127.0.0.1:70000", wantErr: true},
		{name: "empty host", proxy: ":9050", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewClient(Options{ProxyAddress: tt.proxy})
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidProxyAddress), "expected ErrInvalidProxyAddress, got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestClientNotConfigured(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Options{})
	require.NoError(t, err)

	_, err = c.Entities(context.Background(), "http://resolver.kb.nl/a")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
