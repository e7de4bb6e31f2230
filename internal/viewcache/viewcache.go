package viewcache

import (
	"context"

	"github.com/ayxworxfr/scada_web/internal/domain/models"
	"github.com/ayxworxfr/scada_web/internal/settings"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/ayxworxfr/scada_web/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrIndexOutOfRange 视图索引超出平铺列表范围
var ErrIndexOutOfRange = errors.New("view index out of range")

// ErrUnsupportedViewType 视图配置中的类型没有对应的实现
var ErrUnsupportedViewType = errors.New("unsupported view type")

// View 可缓存的视图
type View interface {
	// StoredOnServer 为 true 时视图内容需要从 SCADA 服务器获取
	StoredOnServer() bool
	// ViewType 视图配置中的类型名
	ViewType() string
	SetItfObjName(name string)
	BindCnlProps(props []models.CnlProps)
}

// Fetcher 从 SCADA 服务器获取视图内容
type Fetcher interface {
	ReceiveView(ctx context.Context, fileName string, view View) error
}

// ChannelSource 提供输入通道属性
type ChannelSource interface {
	CnlProps(ctx context.Context) ([]models.CnlProps, error)
}

// Cache 会话级视图缓存，槽位与视图平铺列表按索引对齐。不是并发安全的
type Cache struct {
	views     []View
	fileNames []string
	fetcher   Fetcher
	channels  ChannelSource
}

// New 按视图配置创建空缓存。配置为空或损坏时缓存为空，所有索引都越界
func New(ctx context.Context, viewSettings *settings.ViewSettings, fetcher Fetcher, channels ChannelSource) *Cache {
	c := &Cache{fetcher: fetcher, channels: channels}
	if viewSettings == nil {
		return c
	}

	fileNames := make([]string, len(viewSettings.AllViewItems))
	for i, item := range viewSettings.AllViewItems {
		if item == nil {
			logger.Error(ctx, "Error initializing cache of views", zap.Int("index", i), zap.String("reason", "nil view item"))
			return c
		}
		fileNames[i] = item.FileName
	}
	c.fileNames = fileNames
	c.views = make([]View, len(fileNames))
	return c
}

// Len 槽位数
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.views)
}

// View 只查缓存，未缓存或越界时返回 nil
func (c *Cache) View(i int) View {
	if c == nil || i < 0 || i >= len(c.views) {
		return nil
	}
	return c.views[i]
}

// Get 返回类型为 T 的视图。缓存中已有同类型视图时直接返回，
// 否则新建视图，需要时从服务器获取，绑定通道属性后放入缓存。
// 获取失败时缓存不变，下次调用会重试
func Get[T View](ctx context.Context, c *Cache, i int, newView func() T) (view T, err error) {
	var zero T
	if c == nil || i < 0 || i >= len(c.views) {
		return zero, ErrIndexOutOfRange
	}
	if cached, ok := c.views[i].(T); ok {
		metrics.ViewRequestsTotal.WithLabelValues(metrics.ResultHit).Inc()
		return cached, nil
	}

	fileName := c.fileNames[i]
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
		if err != nil {
			view = zero
			metrics.ViewRequestsTotal.WithLabelValues(metrics.ResultError).Inc()
			logger.Error(ctx, "Error getting view from the cache or from the server",
				zap.Int("index", i), zap.String("file", fileName), zap.Error(err))
		}
	}()

	if newView == nil {
		return zero, errors.New("view constructor is not specified")
	}
	view = newView()

	if !view.StoredOnServer() {
		view.SetItfObjName(settings.ItfObjName(fileName))
	} else {
		if c.fetcher == nil {
			return zero, errors.New("view fetcher is not specified")
		}
		if err := c.fetcher.ReceiveView(ctx, fileName, view); err != nil {
			return zero, errors.Wrapf(err, "receive view %s", fileName)
		}
	}

	var props []models.CnlProps
	if c.channels != nil {
		if props, err = c.channels.CnlProps(ctx); err != nil {
			return zero, errors.Wrap(err, "load channel properties")
		}
	}
	view.BindCnlProps(props)

	c.views[i] = view
	metrics.ViewRequestsTotal.WithLabelValues(metrics.ResultFetched).Inc()
	return view, nil
}
