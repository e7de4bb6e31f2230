package config

import "time"

// OpenTelemetryConfig 存储OpenTelemetry相关配置
type OpenTelemetryConfig struct {
	Enable   bool    `yaml:"enable"`   // 是否启用
	Service  string  `yaml:"service"`  // 服务名称
	Endpoint string  `yaml:"endpoint"` // 上报地址
	Protocol string  `yaml:"protocol"` // grpc / http
	Sampling float64 `yaml:"sampling"` // 采样率（0.0-1.0）
	Timeout  int     `yaml:"timeout"`  // 超时时间（秒）
}

// NewOpenTelemetryConfig 默认不启用，启用时按 10% 采样
func NewOpenTelemetryConfig() OpenTelemetryConfig {
	return OpenTelemetryConfig{
		Enable:   false,
		Service:  "scada-web",
		Endpoint: "localhost:4317",
		Protocol: "grpc",
		Sampling: 0.1,
		Timeout:  3,
	}
}

// TimeoutDuration 上报超时
func (c OpenTelemetryConfig) TimeoutDuration() time.Duration {
	if c.Timeout <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}
