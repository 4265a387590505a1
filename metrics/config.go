package metrics

// Config 指标系统配置
//
// 典型配置（YAML）：
//
//	metrics:
//	  enabled: true
//	  service_name: "order-service"
//	  version: "v1.2.3"
//	  port: 9090
//	  path: "/metrics"
type Config struct {
	// Enabled 为 false 时 New 返回 noop Meter
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// ServiceName 作为 OpenTelemetry Resource 的 service.name
	ServiceName string `mapstructure:"service_name" yaml:"service_name" json:"service_name"`

	// Version 作为 OpenTelemetry Resource 的 service.version
	Version string `mapstructure:"version" yaml:"version" json:"version"`

	// Port 大于 0 时启动 Prometheus HTTP 服务器
	Port int `mapstructure:"port" yaml:"port" json:"port"`

	// Path Prometheus 采集路径，默认 "/metrics"
	Path string `mapstructure:"path" yaml:"path" json:"path"`
}

func (c *Config) setDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "idbuilder"
	}
	if c.Path == "" {
		c.Path = "/metrics"
	}
}
