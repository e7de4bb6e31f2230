package scadaclient

import (
	"context"
	"net/url"

	"github.com/ayxworxfr/scada_web/internal/config"
	"github.com/ayxworxfr/scada_web/internal/viewcache"
	"github.com/ayxworxfr/scada_web/pkg/httpclient"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	viewPath   = "/api/views"
	statusPath = "/api/status"
)

// Client 远程 SCADA 服务器客户端，提供视图文件
type Client struct {
	http *httpclient.Client
}

// New 按配置创建客户端
func New(cfg config.ScadaServerConfig) *Client {
	return &Client{
		http: httpclient.NewClient(cfg.BaseURL,
			httpclient.WithTimeout(cfg.TimeoutDuration()),
			httpclient.WithRetries(cfg.Retries),
			httpclient.WithHeader("Accept", "application/xml"),
		),
	}
}

// ReceiveView 下载视图文件并加载到视图中
func (c *Client) ReceiveView(ctx context.Context, fileName string, view viewcache.View) error {
	loader, ok := view.(viewcache.DataLoader)
	if !ok {
		return errors.Errorf("view %T cannot load data", view)
	}

	data, err := c.http.GetBytes(ctx, viewPath, url.Values{"file": {fileName}})
	if err != nil {
		return errors.Wrap(err, "download view")
	}
	logger.Debug(ctx, "View received", zap.String("file", fileName), zap.Int("size", len(data)))

	return loader.LoadData(data)
}

// Status 服务器状态
type Status struct {
	Running bool   `json:"running"`
	Version string `json:"version"`
}

// Ping 检查服务器是否可用
func (c *Client) Ping(ctx context.Context) (*Status, error) {
	status := &Status{}
	if err := c.http.GetJSON(ctx, statusPath, nil, status); err != nil {
		return nil, errors.Wrap(err, "get server status")
	}
	return status, nil
}
