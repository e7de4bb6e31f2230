package sentinel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alibaba/sentinel-golang/api"
	"github.com/alibaba/sentinel-golang/core/base"
	"github.com/alibaba/sentinel-golang/core/circuitbreaker"
	sconfig "github.com/alibaba/sentinel-golang/core/config"
	"github.com/alibaba/sentinel-golang/core/flow"
	"github.com/alibaba/sentinel-golang/logging"
	"github.com/ayxworxfr/scada_web/internal/config"
	mycontext "github.com/ayxworxfr/scada_web/pkg/context"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/ayxworxfr/scada_web/pkg/metrics"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.uber.org/zap"
)

// 规则文件检查间隔
const watchInterval = 30 * time.Second

var Instance *Sentinel

// SentinelMiddleware 未初始化时直接放行
func SentinelMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if Instance == nil {
			c.Next(ctx)
			return
		}
		Instance.handle(ctx, c)
	}
}

// InitSentinel 读取规则文件并初始化，ctx 取消后停止监听
func InitSentinel(ctx context.Context, configPath string) error {
	instance, err := NewSentinel(configPath)
	if err != nil {
		return err
	}
	if err := instance.initSentinel(); err != nil {
		return fmt.Errorf("failed to initialize Sentinel: %w", err)
	}
	instance.configManager.StartWatcher(ctx, watchInterval)
	Instance = instance
	return nil
}

// Sentinel 按接口路径做流控和熔断
type Sentinel struct {
	configManager   *config.ConfigManager
	resourceMap     map[string]string // 路径 -> 资源名
	defaultResource string
	mutex           sync.RWMutex
}

// NewSentinel 加载规则，不初始化 sentinel 运行时
func NewSentinel(configPath string) (*Sentinel, error) {
	configManager, err := config.NewConfigManager(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	s := &Sentinel{
		configManager: configManager,
		resourceMap:   make(map[string]string),
	}
	if err := s.loadRules(configManager.GetConfig()); err != nil {
		return nil, fmt.Errorf("failed to load Sentinel rules: %w", err)
	}

	configManager.OnChange(func(cfg *config.SentinelConfig) {
		if err := s.loadRules(cfg); err != nil {
			logger.Error(context.Background(), "Failed to reload Sentinel rules", zap.Error(err))
		}
	})
	return s, nil
}

func (s *Sentinel) initSentinel() error {
	cfg := s.configManager.GetConfig()

	sentinelConfig := sconfig.NewDefaultConfig()
	sentinelConfig.Sentinel.App.Name = cfg.Sentinel.AppName
	if cfg.Sentinel.Log.Enabled {
		sentinelConfig.Sentinel.Log = sconfig.LogConfig{
			Dir:    cfg.Sentinel.Log.Dir,
			UsePid: cfg.Sentinel.Log.UsePid,
			Metric: sconfig.MetricLogConfig{
				SingleFileMaxSize: cfg.Sentinel.Log.Metric.SingleFileMaxSize,
				MaxFileCount:      cfg.Sentinel.Log.Metric.MaxFileCount,
				FlushIntervalSec:  cfg.Sentinel.Log.Metric.FlushIntervalSec,
			},
		}
	}
	sentinelConfig.Sentinel.Exporter.Metric = sconfig.MetricExporterConfig{
		HttpAddr: cfg.Sentinel.Log.Metric.HttpAddr,
		HttpPath: cfg.Sentinel.Log.Metric.HttpPath,
	}

	if err := logging.ResetGlobalLogger(NewSentinelLogger()); err != nil {
		return err
	}
	return api.InitWithConfig(sentinelConfig)
}

// loadRules 用新规则整体替换，资源映射同步更新
func (s *Sentinel) loadRules(cfg *config.SentinelConfig) error {
	resourceMap := make(map[string]string)
	var flowRules []*flow.Rule
	var cbRules []*circuitbreaker.Rule

	for _, resource := range cfg.Sentinel.Resources {
		if !resource.Enabled {
			continue
		}
		resourceMap[resource.Path] = resource.Name
		flowRules = append(flowRules, resource.ToFlowRules()...)
		cbRules = append(cbRules, resource.ToCircuitBreakerRules(*cfg)...)
	}

	if _, err := flow.LoadRules(flowRules); err != nil {
		return fmt.Errorf("failed to load flow rules: %w", err)
	}
	if _, err := circuitbreaker.LoadRules(cbRules); err != nil {
		return fmt.Errorf("failed to load circuit breaker rules: %w", err)
	}

	s.mutex.Lock()
	s.resourceMap = resourceMap
	s.defaultResource = cfg.Sentinel.DefaultResource
	s.mutex.Unlock()

	logger.Debug(context.Background(), "Sentinel rules loaded",
		zap.Int("flow_rules", len(flowRules)),
		zap.Int("circuit_breaker_rules", len(cbRules)))
	return nil
}

func (s *Sentinel) handle(ctx context.Context, c *app.RequestContext) {
	path := string(c.Path())
	resourceName, ok := s.matchResource(path)
	if !ok {
		c.Next(ctx)
		return
	}

	entry, blockErr := api.Entry(resourceName, api.WithTrafficType(base.Inbound))
	if blockErr != nil {
		metrics.RequestsBlockedTotal.WithLabelValues("sentinel", path).Inc()
		logger.Warn(ctx, "Request blocked by Sentinel",
			zap.String("resource", resourceName),
			zap.String("reason", blockErr.BlockType().String()))
		c.JSON(consts.StatusTooManyRequests, mycontext.RateLimit("Too many requests, please try again later"))
		c.Abort()
		return
	}
	defer entry.Exit()

	c.Next(ctx)
	if c.Response.StatusCode() >= consts.StatusInternalServerError {
		api.TraceError(entry, fmt.Errorf("status %d", c.Response.StatusCode()))
	}
}

// matchResource 未配置的路径使用默认资源，默认资源为空则不保护
func (s *Sentinel) matchResource(path string) (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if name, ok := s.resourceMap[path]; ok {
		return name, true
	}
	return s.defaultResource, s.defaultResource != ""
}
