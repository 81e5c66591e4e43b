package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComplete_SendsChatRequest(t *testing.T) {
	var got chatRequest
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"teams\":[]}"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, APIKey: "key", Model: "m", Temperature: 0.7, JSONMode: true}, srv.Client(), nil)
	out, err := c.Complete(context.Background(), Request{System: "sys", User: "usr"})
	require.NoError(t, err)
	require.Equal(t, `{"teams":[]}`, out)

	require.Equal(t, "Bearer key", auth)
	require.Equal(t, "/v1/chat/completions", path)
	require.Equal(t, "m", got.Model)
	require.InDelta(t, 0.7, got.Temperature, 1e-9)
	require.Equal(t, []message{{"system", "sys"}, {"user", "usr"}}, got.Messages)
	require.NotNil(t, got.ResponseFormat)
	require.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestComplete_Non2xxIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL}, srv.Client(), nil)
	_, err := c.Complete(context.Background(), Request{})
	require.ErrorIs(t, err, ErrUnavailable)
	require.Contains(t, err.Error(), "429")
}

type failingClient struct{}

func (failingClient) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestComplete_TransportErrorIsUnavailable(t *testing.T) {
	c := NewClient(Options{}, failingClient{}, nil)
	_, err := c.Complete(context.Background(), Request{})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestComplete_EmptyChoices(t *testing.T) {
	for _, body := range []string{`{"choices":[]}`, `{"choices":[{"message":{"content":"  "}}]}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		c := NewClient(Options{BaseURL: srv.URL}, srv.Client(), nil)
		_, err := c.Complete(context.Background(), Request{})
		srv.Close()
		require.ErrorIs(t, err, ErrEmpty, body)
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	cases := map[string]string{
		"":                                     "https://api.openai.com/v1/chat/completions",
		"https://api.openai.com/":              "https://api.openai.com/v1/chat/completions",
		"http://proxy/v1":                      "http://proxy/v1/chat/completions",
		"http://proxy/v1/":                     "http://proxy/v1/chat/completions",
		"http://proxy/openai/chat/completions": "http://proxy/openai/chat/completions",
	}
	for in, want := range cases {
		require.Equal(t, want, normalizeEndpoint(in), in)
	}
}
