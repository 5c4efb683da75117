package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "arq/pkg/domain-errors"
)

func TestResearch(t *testing.T) {
	t.Run("decodes provider response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer kw_test", r.Header.Get("Authorization"))
			assert.Equal(t, "flexible office", r.URL.Query().Get("keyword"))
			assert.Equal(t, "us", r.URL.Query().Get("country"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"keyword":"flexible office","search_volume":5400,"keyword_difficulty":140,
				"cpc":4.2,"competition":0.61,"related_keywords":[{"keyword":"flex office space","search_volume":880},{"keyword":""}]}`))
		}))
		defer srv.Close()

		c := New(Config{APIURL: srv.URL + "?country=us", APIKey: "kw_test", RequestsPerSecond: 100})
		got, err := c.Research(context.Background(), "flexible office")

		require.NoError(t, err)
		assert.Equal(t, 5400, got.SearchVolume)
		assert.Equal(t, 100, got.Difficulty)
		assert.InDelta(t, 4.2, got.CPC, 0.0001)
		require.Len(t, got.Related, 1)
		assert.Equal(t, "flex office space", got.Related[0].Keyword)
	})

	t.Run("provider error is upstream", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := New(Config{APIURL: srv.URL, APIKey: "kw_test", RequestsPerSecond: 100})
		_, err := c.Research(context.Background(), "office")

		assert.True(t, dErrors.HasCode(err, dErrors.CodeUpstream))
	})

	t.Run("slow provider times out", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer srv.Close()

		c := New(Config{APIURL: srv.URL, APIKey: "kw_test", Timeout: 20 * time.Millisecond, RequestsPerSecond: 100})
		_, err := c.Research(context.Background(), "office")

		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	})

	t.Run("unconfigured is unavailable", func(t *testing.T) {
		c := New(Config{})
		assert.False(t, c.Configured())
		_, err := c.Research(context.Background(), "office")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}
