package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arq/internal/leads/models"
	"arq/pkg/platform/sentinel"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []*Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.err
}

type staticResources map[string]string

func (s staticResources) ResolveDownload(_ context.Context, slug string) (string, error) {
	if u, ok := s[slug]; ok {
		return u, nil
	}
	return "", sentinel.ErrNotFound
}

func contactLead() *models.Lead {
	return &models.Lead{
		ID:      uuid.New(),
		Kind:    models.KindContact,
		Name:    "Ada <script>",
		Email:   "ada@example.com",
		Company: "Analytical Engines",
		Message: "We need a new office.",
		Device:  "Chrome on macOS",
		Analysis: &models.Analysis{
			Summary: "Office fit-out enquiry", Priority: models.PriorityHigh, Score: 82,
		},
	}
}

func TestNotifyTeam(t *testing.T) {
	sender := &recordingSender{}
	n, err := New(Config{From: "site@arq.test", NotifyTo: "team@arq.test", SiteName: "Arq"}, sender)
	require.NoError(t, err)

	require.NoError(t, n.NotifyTeam(context.Background(), contactLead()))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, []string{"team@arq.test"}, msg.To)
	assert.Equal(t, "ada@example.com", msg.ReplyTo)
	assert.Equal(t, "[Arq] Contact request from Ada <script> (high)", msg.Subject)
	assert.Contains(t, msg.HTML, "Ada &lt;script&gt;")
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "Triage: high (82/100)")
	assert.Contains(t, msg.Text, "Company: Analytical Engines")
	assert.Contains(t, msg.Text, "We need a new office.")
}

func TestNotifyTeam_NoTeamAddress(t *testing.T) {
	sender := &recordingSender{}
	n, err := New(Config{From: "site@arq.test"}, sender)
	require.NoError(t, err)

	require.NoError(t, n.NotifyTeam(context.Background(), contactLead()))
	assert.Empty(t, sender.sent)
}

func TestConfirm(t *testing.T) {
	t.Run("newsletter", func(t *testing.T) {
		sender := &recordingSender{}
		n, err := New(Config{From: "site@arq.test", SiteName: "Arq"}, sender)
		require.NoError(t, err)

		lead := &models.Lead{Kind: models.KindNewsletter, Email: "reader@example.com"}
		require.NoError(t, n.Confirm(context.Background(), lead))

		require.Len(t, sender.sent, 1)
		assert.Equal(t, []string{"reader@example.com"}, sender.sent[0].To)
		assert.Equal(t, "Welcome to the Arq newsletter", sender.sent[0].Subject)
		assert.Contains(t, sender.sent[0].Text, "subscribed")
	})

	t.Run("download carries the file link", func(t *testing.T) {
		sender := &recordingSender{}
		n, err := New(Config{From: "site@arq.test"}, sender,
			WithResources(staticResources{"office-guide": "https://cdn.arq.test/office-guide.pdf"}))
		require.NoError(t, err)

		lead := &models.Lead{Kind: models.KindDownload, Email: "dl@example.com", Resource: "office-guide"}
		require.NoError(t, n.Confirm(context.Background(), lead))

		require.Len(t, sender.sent, 1)
		assert.Contains(t, sender.sent[0].HTML, `href="https://cdn.arq.test/office-guide.pdf"`)
		assert.Contains(t, sender.sent[0].Text, "https://cdn.arq.test/office-guide.pdf")
	})

	t.Run("sender error is returned", func(t *testing.T) {
		sender := &recordingSender{err: errors.New("smtp down")}
		n, err := New(Config{}, sender)
		require.NoError(t, err)

		err = n.Confirm(context.Background(), contactLead())
		assert.EqualError(t, err, "smtp down")
	})
}

func TestHTTPSender(t *testing.T) {
	t.Run("posts json with bearer key", func(t *testing.T) {
		var got Message
		var auth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &got)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		s := NewHTTPSender(EmailConfig{APIURL: srv.URL, APIKey: "re_test", RequestsPerSecond: 100})
		err := s.Send(context.Background(), &Message{
			From: "site@arq.test", To: []string{"a@example.com"}, Subject: "hi", Text: "body", Template: "confirm",
		})

		require.NoError(t, err)
		assert.Equal(t, "Bearer re_test", auth)
		assert.Equal(t, "hi", got.Subject)
		assert.Equal(t, []string{"a@example.com"}, got.To)
		assert.Empty(t, got.Template)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid from address", http.StatusUnprocessableEntity)
		}))
		defer srv.Close()

		s := NewHTTPSender(EmailConfig{APIURL: srv.URL, APIKey: "re_test", RequestsPerSecond: 100})
		err := s.Send(context.Background(), &Message{To: []string{"a@example.com"}})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "422")
	})

	t.Run("unconfigured", func(t *testing.T) {
		s := NewHTTPSender(EmailConfig{})
		err := s.Send(context.Background(), &Message{})
		assert.ErrorIs(t, err, sentinel.ErrNotConfigured)
	})
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NoError(t, s.Send(context.Background(), &Message{Subject: "x"}))
}
