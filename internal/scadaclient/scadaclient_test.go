package scadaclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ayxworxfr/scada_web/internal/config"
	"github.com/ayxworxfr/scada_web/internal/settings"
	"github.com/ayxworxfr/scada_web/internal/viewcache"
	"github.com/ayxworxfr/scada_web/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	cfg := config.NewScadaServerConfig()
	cfg.BaseURL = url
	cfg.Retries = 0
	return New(cfg)
}

func TestReceiveView(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  bool
		wantNums []int
	}{
		{name: "ok", status: http.StatusOK, body: `<TableView title="T"><Item cnlNum="5">A</Item></TableView>`, wantNums: []int{5}},
		{name: "not found", status: http.StatusNotFound, body: "missing", wantErr: true},
		{name: "malformed", status: http.StatusOK, body: "<TableView>", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, viewPath, r.URL.Path)
				assert.Equal(t, "Boiler.tbl", r.URL.Query().Get("file"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			view := viewcache.NewTableView()
			err := newTestClient(ts.URL).ReceiveView(context.Background(), "Boiler.tbl", view)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNums, view.CnlNums)
		})
	}
}

func TestReceiveView_LocalView(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer ts.Close()

	err := newTestClient(ts.URL).ReceiveView(context.Background(), "page.html", viewcache.NewWebPageView())
	assert.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestClientWithCache(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`<SchemeView><Elements><DynamicText inCnlNum="12"/></Elements></SchemeView>`))
	}))
	defer ts.Close()

	ctx := context.Background()
	cfg := config.NewScadaServerConfig()
	cfg.BaseURL = ts.URL
	viewSettings := settings.NewViewSettings()
	viewSettings.AllViewItems = []*settings.ViewItem{{Type: settings.ViewTypeScheme, FileName: "Main.sch"}}
	cache := viewcache.New(ctx, viewSettings, New(cfg), nil)

	for i := 0; i < 3; i++ {
		view, err := viewcache.Get(ctx, cache, 0, viewcache.NewSchemeView)
		require.NoError(t, err)
		assert.Equal(t, []int{12}, view.CnlNums)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case statusPath:
			_, _ = w.Write([]byte(`{"running":true,"version":"5.1"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	status, err := newTestClient(ts.URL).Ping(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Running)
	assert.Equal(t, "5.1", status.Version)
}

func TestPing_ServerDown(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).Ping(context.Background())
	assert.ErrorIs(t, err, httpclient.ErrStatusNotOK)
}
