package httpclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ayxworxfr/scada_web/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	assert := assert.New(t)

	client := httpclient.NewClient("https://scada.example.com")
	assert.Equal("https://scada.example.com", client.BaseURL)
	assert.Equal(30*time.Second, client.HTTPClient.Timeout)
	assert.Equal(3, client.Retries)
	assert.Equal(500*time.Millisecond, client.Backoff)
	assert.Equal("application/json", client.Headers["Content-Type"])
}

func TestClient_WithOptions(t *testing.T) {
	assert := assert.New(t)

	client := httpclient.NewClient(
		"https://scada.example.com",
		httpclient.WithTimeout(15*time.Second),
		httpclient.WithRetries(5),
		httpclient.WithBackoff(200*time.Millisecond),
		httpclient.WithHeader("Content-Type", "application/xml"),
	)
	assert.Equal(15*time.Second, client.HTTPClient.Timeout)
	assert.Equal(5, client.Retries)
	assert.Equal(200*time.Millisecond, client.Backoff)
	assert.Equal("application/xml", client.Headers["Content-Type"])

	client.SetHeader("Authorization", "Bearer token123")
	assert.Equal("Bearer token123", client.Headers["Authorization"])
}

func TestClient_GetBytes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/views", r.URL.Path)
		assert.Equal(t, "Scheme.sch", r.URL.Query().Get("file"))
		_, _ = w.Write([]byte("<SchemeView/>"))
	}))
	defer ts.Close()

	client := httpclient.NewClient(ts.URL, httpclient.WithRetries(0))
	data, err := client.GetBytes(context.Background(), "/views", url.Values{"file": {"Scheme.sch"}})
	require.NoError(t, err)
	assert.Equal(t, "<SchemeView/>", string(data))
}

func TestClient_GetBytesNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such view", http.StatusNotFound)
	}))
	defer ts.Close()

	client := httpclient.NewClient(ts.URL, httpclient.WithRetries(2), httpclient.WithBackoff(time.Millisecond))
	_, err := client.GetBytes(context.Background(), "/views", nil)

	var statusErr *httpclient.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.True(t, errors.Is(err, httpclient.ErrStatusNotOK))
	assert.False(t, httpclient.IsRetriableError(err))
}

func TestClient_RetryServerError(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		// 每次重试都能拿到完整请求体
		assert.JSONEq(t, `{"cnl":1}`, string(body))
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer ts.Close()

	client := httpclient.NewClient(ts.URL, httpclient.WithRetries(3), httpclient.WithBackoff(time.Millisecond))
	var result map[string]string
	err := client.PostJSON(context.Background(), "/cmd", map[string]int{"cnl": 1}, &result)
	require.NoError(t, err)
	assert.Equal(t, "ok", result["status"])
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_RetryExhausted(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := httpclient.NewClient(ts.URL, httpclient.WithRetries(2), httpclient.WithBackoff(time.Millisecond))
	_, err := client.Get(context.Background(), "/", nil)
	assert.Error(t, err)
	assert.True(t, httpclient.IsRetriableError(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_GetJSON(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "ok", status: http.StatusOK, body: `{"name":"Scheme"}`},
		{name: "empty body", status: http.StatusOK, body: "", wantErr: httpclient.ErrEmptyResponseBody},
		{name: "bad json", status: http.StatusOK, body: "{", wantErr: httpclient.ErrJSONUnmarshal},
		{name: "bad request", status: http.StatusBadRequest, body: "bad", wantErr: httpclient.ErrStatusNotOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			client := httpclient.NewClient(ts.URL, httpclient.WithRetries(0))
			var result struct {
				Name string `json:"name"`
			}
			err := client.GetJSON(context.Background(), "/", nil, &result)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "Scheme", result.Name)
		})
	}
}

func TestClient_ContextCancelledDuringBackoff(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := httpclient.NewClient(ts.URL, httpclient.WithRetries(5), httpclient.WithBackoff(time.Second))
	_, err := client.Get(ctx, "/", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_InvalidURL(t *testing.T) {
	client := httpclient.NewClient("://bad")
	_, err := client.Get(context.Background(), "/", nil)
	assert.True(t, errors.Is(err, httpclient.ErrInvalidURL))
}
