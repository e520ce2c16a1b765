package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Get(t *testing.T) {
	var gotReq *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"recalls":[{"id":"r1"}],"total":1}`))
	}))
	defer server.Close()

	c := New(server.URL, "secret-key", 5*time.Second)

	params := url.Values{}
	params.Set("per_page", "10")
	params.Set("since_date", "2024-06-01T00:00:00Z")

	data, err := c.Get(context.Background(), "/fda/recalls", params)
	require.NoError(t, err)

	t.Run("request shape", func(t *testing.T) {
		require.NotNil(t, gotReq)
		assert.Equal(t, "/fda/recalls", gotReq.URL.Path)
		assert.Equal(t, "10", gotReq.URL.Query().Get("per_page"))
		assert.Equal(t, "2024-06-01T00:00:00Z", gotReq.URL.Query().Get("since_date"))
		assert.Equal(t, "application/json", gotReq.Header.Get("Accept"))
		assert.Equal(t, "secret-key", gotReq.Header.Get("X-Service-Key"))
		assert.Equal(t, "intelscope/1.0", gotReq.Header.Get("User-Agent"))
	})

	t.Run("decoded payload", func(t *testing.T) {
		m, ok := data.(map[string]any)
		require.True(t, ok)
		assert.InDelta(t, 1, m["total"], 0.001)
		recalls, ok := m["recalls"].([]any)
		require.True(t, ok)
		assert.Len(t, recalls, 1)
	})
}

func TestClient_Get_NoServiceKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["X-Service-Key"]
		assert.False(t, present, "empty key must not be sent")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := New(server.URL, "", 5*time.Second)
	_, err := c.Get(context.Background(), "/cfpb/complaints", nil)
	require.NoError(t, err)
}

func TestClient_Get_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"upstream unavailable"}`))
	}))
	defer server.Close()

	c := New(server.URL, "k", 5*time.Second)
	_, err := c.Get(context.Background(), "/sec-edgar/filings", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream unavailable")
}

func TestClient_Get_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	c := New(server.URL, "k", 5*time.Second)
	_, err := c.Get(context.Background(), "/fda/recalls", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestClient_Get_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(server.URL, "k", 5*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, "/fda/recalls", nil)
	require.Error(t, err)
}

func TestClient_BaseURLTrailingSlash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fda/recalls", r.URL.Path)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(server.URL+"/", "k", 5*time.Second)
	_, err := c.Get(context.Background(), "/fda/recalls", nil)
	require.NoError(t, err)
}
