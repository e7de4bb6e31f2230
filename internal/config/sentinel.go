package config

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/alibaba/sentinel-golang/core/circuitbreaker"
	"github.com/alibaba/sentinel-golang/core/flow"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// SentinelConfig 哨兵规则文件结构
type SentinelConfig struct {
	Sentinel struct {
		AppName              string    `yaml:"app_name"`
		Log                  LogConfig `yaml:"log"`
		GlobalCircuitBreaker struct {
			Enabled          bool   `yaml:"enabled"`
			RetryTimeoutMs   uint32 `yaml:"retry_timeout_ms"`
			MinRequestAmount uint64 `yaml:"min_request_amount"`
			StatIntervalMs   uint32 `yaml:"stat_interval_ms"`
		} `yaml:"global_circuit_breaker"`
		// DefaultResource 未匹配路径的请求使用的资源名，为空时不做保护
		DefaultResource string           `yaml:"default_resource"`
		Resources       []ResourceConfig `yaml:"resources"`
	} `yaml:"sentinel"`
}

type LogConfig struct {
	Enabled bool            `yaml:"enabled"`
	UsePid  bool            `yaml:"usePid"`
	Dir     string          `yaml:"dir"`
	Metric  MetricLogConfig `yaml:"metric"`
}

type MetricLogConfig struct {
	HttpAddr          string `yaml:"httpAddr"`
	HttpPath          string `yaml:"httpPath"`
	SingleFileMaxSize uint64 `yaml:"singleFileMaxSize"`
	MaxFileCount      uint32 `yaml:"maxFileCount"`
	FlushIntervalSec  uint32 `yaml:"flushIntervalSec"`
}

// ResourceConfig 资源配置，Path 为接口路径
type ResourceConfig struct {
	Name               string                   `yaml:"name"`
	Path               string                   `yaml:"path"`
	Enabled            bool                     `yaml:"enabled"`
	FlowRule           FlowRuleConfig           `yaml:"flow_rule"`
	CircuitBreakerRule CircuitBreakerRuleConfig `yaml:"circuit_breaker_rule"`
}

// FlowRuleConfig 限流规则配置
type FlowRuleConfig struct {
	Enabled           bool    `yaml:"enabled"`
	Threshold         float64 `yaml:"threshold"`
	ControlBehavior   string  `yaml:"control_behavior"`
	MaxQueueingTimeMs int     `yaml:"max_queueing_time_ms"`
}

// CircuitBreakerRuleConfig 熔断规则配置
type CircuitBreakerRuleConfig struct {
	Enabled             bool    `yaml:"enabled"`
	Strategy            string  `yaml:"strategy"`
	SlowRtThreshold     int64   `yaml:"slow_rt_threshold"`
	ErrorRatioThreshold float64 `yaml:"error_ratio_threshold"`
	MinRequestAmount    uint64  `yaml:"min_request_amount"`
	StatIntervalMs      uint32  `yaml:"stat_interval_ms"`
	MaxAllowedRtMs      uint64  `yaml:"max_allowed_rt_ms"`
}

// ParseSentinelConfig 解析规则文件内容
func ParseSentinelConfig(data []byte) (*SentinelConfig, error) {
	cfg := &SentinelConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal sentinel config")
	}
	for _, res := range cfg.Sentinel.Resources {
		if res.Enabled && res.Name == "" {
			return nil, errors.Errorf("sentinel resource for path %q has no name", res.Path)
		}
	}
	return cfg, nil
}

// ConfigManager 规则文件管理器，文件修改时间变化才重新解析
type ConfigManager struct {
	configPath string
	config     *SentinelConfig
	modTime    time.Time
	mutex      sync.RWMutex
	onChange   func(*SentinelConfig)
}

// NewConfigManager 创建配置管理器
func NewConfigManager(configPath string) (*ConfigManager, error) {
	manager := &ConfigManager{
		configPath: configPath,
	}

	if _, err := manager.reloadConfig(); err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	return manager, nil
}

// GetConfig 获取当前配置
func (cm *ConfigManager) GetConfig() *SentinelConfig {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return cm.config
}

// OnChange 注册规则变化回调
func (cm *ConfigManager) OnChange(fn func(*SentinelConfig)) {
	cm.mutex.Lock()
	cm.onChange = fn
	cm.mutex.Unlock()
}

// StartWatcher 定期检查规则文件，ctx 取消后退出
func (cm *ConfigManager) StartWatcher(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				changed, err := cm.reloadConfig()
				if err != nil {
					logger.Error(ctx, "Failed to reload sentinel config", zap.String("path", cm.configPath), zap.Error(err))
					continue
				}
				if changed {
					cm.mutex.RLock()
					fn, cfg := cm.onChange, cm.config
					cm.mutex.RUnlock()
					if fn != nil {
						fn(cfg)
					}
				}
			}
		}
	}()
}

// reloadConfig 文件修改时间未变化时直接返回
func (cm *ConfigManager) reloadConfig() (bool, error) {
	info, err := os.Stat(cm.configPath)
	if err != nil {
		return false, errors.Wrap(err, "failed to stat config file")
	}

	cm.mutex.RLock()
	unchanged := cm.config != nil && info.ModTime().Equal(cm.modTime)
	cm.mutex.RUnlock()
	if unchanged {
		return false, nil
	}

	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return false, errors.Wrap(err, "failed to read config file")
	}

	newConfig, err := ParseSentinelConfig(data)
	if err != nil {
		return false, err
	}

	cm.mutex.Lock()
	cm.config = newConfig
	cm.modTime = info.ModTime()
	cm.mutex.Unlock()

	logger.Debug(context.Background(), "Sentinel config reloaded", zap.String("path", cm.configPath))
	return true, nil
}

// ToFlowRules 将配置转换为Sentinel流控规则
func (rc *ResourceConfig) ToFlowRules() []*flow.Rule {
	if !rc.Enabled || !rc.FlowRule.Enabled {
		return nil
	}

	return []*flow.Rule{
		{
			Resource:               rc.Name,
			TokenCalculateStrategy: flow.Direct,
			ControlBehavior:        getControlBehavior(rc.FlowRule.ControlBehavior),
			Threshold:              rc.FlowRule.Threshold,
			MaxQueueingTimeMs:      uint32(rc.FlowRule.MaxQueueingTimeMs),
			StatIntervalInMs:       1000,
		},
	}
}

// ToCircuitBreakerRules 将配置转换为Sentinel熔断规则，未配置的字段取全局值
func (rc *ResourceConfig) ToCircuitBreakerRules(globalConfig SentinelConfig) []*circuitbreaker.Rule {
	if !rc.Enabled || !rc.CircuitBreakerRule.Enabled {
		return nil
	}

	global := globalConfig.Sentinel.GlobalCircuitBreaker
	rule := &circuitbreaker.Rule{
		Resource:         rc.Name,
		Strategy:         getStrategy(rc.CircuitBreakerRule.Strategy),
		RetryTimeoutMs:   firstNonZero(global.RetryTimeoutMs, 5000),
		MinRequestAmount: firstNonZero(rc.CircuitBreakerRule.MinRequestAmount, global.MinRequestAmount, 10),
		StatIntervalMs:   firstNonZero(rc.CircuitBreakerRule.StatIntervalMs, global.StatIntervalMs, 5000),
		MaxAllowedRtMs:   rc.CircuitBreakerRule.MaxAllowedRtMs,
		Threshold:        rc.CircuitBreakerRule.ErrorRatioThreshold,
	}
	return []*circuitbreaker.Rule{rule}
}

func getStrategy(strategy string) circuitbreaker.Strategy {
	switch strategy {
	case "error_ratio":
		return circuitbreaker.ErrorRatio
	case "error_count":
		return circuitbreaker.ErrorCount
	default:
		return circuitbreaker.SlowRequestRatio
	}
}

// getControlBehavior 将字符串控制行为转换为Sentinel控制行为
func getControlBehavior(behavior string) flow.ControlBehavior {
	switch behavior {
	case "throttle":
		return flow.Throttling
	default:
		return flow.Reject
	}
}

func firstNonZero[T uint32 | uint64](values ...T) T {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
