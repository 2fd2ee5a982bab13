package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientGenerateContent(t *testing.T) {
	var received generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, generatePath, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(generateResponse{Model: received.Model, Response: "  {\"job_type\": \"x\"}  ", Done: true})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "gemma:2b", 0, nil)
	c.Format = "json"

	out, err := c.GenerateContent(context.Background(), "generate a profile")
	require.NoError(t, err)
	assert.Equal(t, `{"job_type": "x"}`, out)
	assert.Equal(t, "gemma:2b", received.Model)
	assert.Equal(t, "generate a profile", received.Prompt)
	assert.False(t, received.Stream)
	assert.Equal(t, "json", received.Format)
	assert.Equal(t, "gemma:2b", c.Model())
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		errPart string
	}{
		{
			name: "bad status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "model not found", http.StatusNotFound)
			},
			errPart: "bad status: 404",
		},
		{
			name: "error field",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"error": "out of memory"}`))
			},
			errPart: "ollama error: out of memory",
		},
		{
			name: "empty response",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"response": "   ", "done": true}`))
			},
			errPart: "empty response",
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
			errPart: "decode ollama response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := New(srv.URL, "", 0, nil).GenerateContent(context.Background(), "prompt")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestClientDefaults(t *testing.T) {
	c := New("", "", 0, nil)
	assert.Equal(t, DefaultURL, c.BaseURL)
	assert.Equal(t, DefaultModel, c.Model())

	_, err := c.GenerateContent(context.Background(), " ")
	require.Error(t, err)
}
