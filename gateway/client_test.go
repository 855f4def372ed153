package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ListChats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chats", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"jid":"123@g.us","name":"Team","kind":"group"}]`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Token: "secret"})
	chats, err := c.ListChats(context.Background())
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "123@g.us", chats[0].JID)
}

func TestClient_FetchMessages_Classification(t *testing.T) {
	cases := []struct {
		status int
		kind   Kind
	}{
		{http.StatusUnauthorized, Unauthorized},
		{http.StatusNotFound, NotFound},
		{http.StatusTooManyRequests, RateLimited},
		{http.StatusInternalServerError, Server},
		{http.StatusTeapot, Malformed},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		c := New(Config{BaseURL: srv.URL})
		_, err := c.FetchMessages(context.Background(), "123@g.us", "", 20)
		require.Error(t, err)

		var gwErr *Error
		require.ErrorAs(t, err, &gwErr)
		assert.Equal(t, tc.kind, gwErr.Kind)
		srv.Close()
	}
}

func TestMessage_IsPresenceOnly(t *testing.T) {
	assert.True(t, Message{}.IsPresenceOnly())
	assert.False(t, Message{Content: "hi"}.IsPresenceOnly())
	assert.False(t, Message{MediaType: MediaImage}.IsPresenceOnly())
}
