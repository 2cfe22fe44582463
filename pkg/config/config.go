// Package config loads process-level configuration: defaults, then an
// optional hippograph.yaml, then HIPPOGRAPH_* environment overrides
// (§10.3). It produces both the process settings (store path, log
// level, capability-service endpoints) and the domain.DomainConfig
// the application services consult directly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	domainconfig "github.com/artemMprokhorov/hippograph-pro/domain/config"
)

// CapabilityEndpoints are the base URLs of the opaque HTTP services
// behind the Embedder/EntityExtractor/Reranker/DateResolver ports.
type CapabilityEndpoints struct {
	Embedder       string `yaml:"embedder"`
	EntityExtractor string `yaml:"entity_extractor"`
	Reranker       string `yaml:"reranker"`
	DateResolver   string `yaml:"date_resolver"`
}

// Config is the full process configuration: where to look for HippoGraph's
// own settings plus the yaml-shaped fields that feed a domainconfig.DomainConfig.
type Config struct {
	StorePath    string              `yaml:"store_path"`
	LogLevel     string              `yaml:"log_level"`
	MetricsPort  int                 `yaml:"metrics_port"`
	WorkerPool   int                 `yaml:"worker_pool"`
	Capabilities CapabilityEndpoints `yaml:"capabilities"`

	Blend struct {
		Alpha float64 `yaml:"alpha"`
		Beta  float64 `yaml:"beta"`
		Gamma float64 `yaml:"gamma"`
		Delta float64 `yaml:"delta"`
	} `yaml:"blend"`
	Spread struct {
		Iterations int     `yaml:"iterations"`
		Decay      float64 `yaml:"decay"`
	} `yaml:"spread"`
	BM25 struct {
		K1 float64 `yaml:"k1"`
		B  float64 `yaml:"b"`
	} `yaml:"bm25"`
	Temporal struct {
		HalfLifeDays     float64  `yaml:"half_life_days"`
		AnchorCategories []string `yaml:"anchor_categories"`
	} `yaml:"temporal"`
	Dup struct {
		BlockThreshold float64 `yaml:"block_threshold"`
		WarnThreshold  float64 `yaml:"warn_threshold"`
	} `yaml:"dup"`
	Rerank struct {
		Enabled bool    `yaml:"enabled"`
		Weight  float64 `yaml:"weight"`
		TopN    int     `yaml:"top_n"`
	} `yaml:"rerank"`
	Hub struct {
		Threshold int `yaml:"threshold"`
	} `yaml:"hub"`
	Sleep struct {
		LightEveryNewNodes int           `yaml:"light_every_new_nodes"`
		DeepInterval       time.Duration `yaml:"deep_interval"`
	} `yaml:"sleep"`
	Tracing struct {
		ServiceName string  `yaml:"service_name"`
		Environment string  `yaml:"environment"`
		Endpoint    string  `yaml:"endpoint"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	// LoadedFrom records which sources actually contributed; the watcher
	// logs it after each reload.
	LoadedFrom []string `yaml:"-"`
}

// Default returns the built-in defaults, matching spec.md §6's values
// and domainconfig.DefaultDomainConfig's.
func Default() *Config {
	cfg := &Config{
		StorePath:   "./hippograph.db",
		LogLevel:    "info",
		MetricsPort: 9090,
		WorkerPool:  4,
	}
	dd := domainconfig.DefaultDomainConfig()
	cfg.Blend.Alpha, cfg.Blend.Beta, cfg.Blend.Gamma, cfg.Blend.Delta =
		dd.Blend.Alpha, dd.Blend.Beta, dd.Blend.Gamma, dd.Blend.Delta
	cfg.Spread.Iterations, cfg.Spread.Decay = dd.Spread.Iterations, dd.Spread.Decay
	cfg.BM25.K1, cfg.BM25.B = dd.BM25.K1, dd.BM25.B
	cfg.Temporal.HalfLifeDays = dd.Temporal.HalfLifeDays
	cfg.Temporal.AnchorCategories = append([]string(nil), dd.Temporal.AnchorCategories...)
	cfg.Dup.BlockThreshold, cfg.Dup.WarnThreshold = dd.Duplicate.BlockThreshold, dd.Duplicate.WarnThreshold
	cfg.Rerank.Enabled, cfg.Rerank.Weight, cfg.Rerank.TopN = dd.Rerank.Enabled, dd.Rerank.Weight, dd.Rerank.TopN
	cfg.Hub.Threshold = dd.HubThreshold
	cfg.Sleep.LightEveryNewNodes, cfg.Sleep.DeepInterval = dd.Sleep.LightEveryNewNodes, dd.Sleep.DeepInterval
	cfg.Tracing.ServiceName = "hippograph"
	cfg.Tracing.Environment = "development"
	cfg.Tracing.SampleRate = 1.0
	cfg.LoadedFrom = []string{"defaults"}
	return cfg
}

// Load builds a Config from defaults, then yamlPath if it exists, then
// HIPPOGRAPH_* environment overrides. yamlPath == "" skips the file
// layer without it being an error (a bare `hippograph` invocation with
// no config file is the common case for a local single-user tool).
func Load(yamlPath string) (*Config, error) {
	cfg := Default()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", yamlPath, err)
			}
			cfg.LoadedFrom = append(cfg.LoadedFrom, yamlPath)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", yamlPath, err)
		}
	}

	if applyEnvOverrides(cfg) {
		cfg.LoadedFrom = append(cfg.LoadedFrom, "environment")
	}

	return cfg, nil
}

// applyEnvOverrides mutates cfg in place from HIPPOGRAPH_* variables,
// returning whether any override was actually applied.
func applyEnvOverrides(cfg *Config) bool {
	applied := false
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
			applied = true
		}
	}
	intv := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
				applied = true
			}
		}
	}
	floatv := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
				applied = true
			}
		}
	}
	boolv := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
				applied = true
			}
		}
	}
	durv := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
				applied = true
			}
		}
	}

	str("HIPPOGRAPH_STORE_PATH", &cfg.StorePath)
	str("HIPPOGRAPH_LOG_LEVEL", &cfg.LogLevel)
	intv("HIPPOGRAPH_METRICS_PORT", &cfg.MetricsPort)
	intv("HIPPOGRAPH_WORKER_POOL", &cfg.WorkerPool)
	str("HIPPOGRAPH_CAPABILITIES_EMBEDDER", &cfg.Capabilities.Embedder)
	str("HIPPOGRAPH_CAPABILITIES_ENTITY_EXTRACTOR", &cfg.Capabilities.EntityExtractor)
	str("HIPPOGRAPH_CAPABILITIES_RERANKER", &cfg.Capabilities.Reranker)
	str("HIPPOGRAPH_CAPABILITIES_DATE_RESOLVER", &cfg.Capabilities.DateResolver)

	floatv("HIPPOGRAPH_BLEND_ALPHA", &cfg.Blend.Alpha)
	floatv("HIPPOGRAPH_BLEND_BETA", &cfg.Blend.Beta)
	floatv("HIPPOGRAPH_BLEND_GAMMA", &cfg.Blend.Gamma)
	floatv("HIPPOGRAPH_BLEND_DELTA", &cfg.Blend.Delta)
	intv("HIPPOGRAPH_SPREAD_ITERATIONS", &cfg.Spread.Iterations)
	floatv("HIPPOGRAPH_SPREAD_DECAY", &cfg.Spread.Decay)
	floatv("HIPPOGRAPH_BM25_K1", &cfg.BM25.K1)
	floatv("HIPPOGRAPH_BM25_B", &cfg.BM25.B)
	floatv("HIPPOGRAPH_TEMPORAL_HALF_LIFE_DAYS", &cfg.Temporal.HalfLifeDays)
	if v := os.Getenv("HIPPOGRAPH_TEMPORAL_ANCHOR_CATEGORIES"); v != "" {
		cfg.Temporal.AnchorCategories = strings.Split(v, ",")
		applied = true
	}
	floatv("HIPPOGRAPH_DUP_BLOCK_THRESHOLD", &cfg.Dup.BlockThreshold)
	floatv("HIPPOGRAPH_DUP_WARN_THRESHOLD", &cfg.Dup.WarnThreshold)
	boolv("HIPPOGRAPH_RERANK_ENABLED", &cfg.Rerank.Enabled)
	floatv("HIPPOGRAPH_RERANK_WEIGHT", &cfg.Rerank.Weight)
	intv("HIPPOGRAPH_RERANK_TOP_N", &cfg.Rerank.TopN)
	intv("HIPPOGRAPH_HUB_THRESHOLD", &cfg.Hub.Threshold)
	intv("HIPPOGRAPH_SLEEP_LIGHT_EVERY_NEW_NODES", &cfg.Sleep.LightEveryNewNodes)
	durv("HIPPOGRAPH_SLEEP_DEEP_INTERVAL", &cfg.Sleep.DeepInterval)

	str("HIPPOGRAPH_TRACING_SERVICE_NAME", &cfg.Tracing.ServiceName)
	str("HIPPOGRAPH_TRACING_ENVIRONMENT", &cfg.Tracing.Environment)
	str("HIPPOGRAPH_TRACING_ENDPOINT", &cfg.Tracing.Endpoint)
	floatv("HIPPOGRAPH_TRACING_SAMPLE_RATE", &cfg.Tracing.SampleRate)

	return applied
}

// DomainConfig projects the loaded process config onto the
// domain.DomainConfig application services depend on, keeping fields
// the process layer has no opinion on (timeouts, semantic-edge params,
// per-category multipliers, embedding dimension, version cap) at
// their documented defaults.
func (c *Config) DomainConfig() *domainconfig.DomainConfig {
	dc := domainconfig.DefaultDomainConfig()
	dc.Blend = domainconfig.BlendWeights{
		Alpha: c.Blend.Alpha, Beta: c.Blend.Beta, Gamma: c.Blend.Gamma, Delta: c.Blend.Delta,
	}
	dc.Spread = domainconfig.SpreadParams{Iterations: c.Spread.Iterations, Decay: c.Spread.Decay}
	dc.BM25 = domainconfig.BM25Params{K1: c.BM25.K1, B: c.BM25.B}
	dc.Temporal.HalfLifeDays = c.Temporal.HalfLifeDays
	dc.Temporal.AnchorCategories = append([]string(nil), c.Temporal.AnchorCategories...)
	dc.Duplicate = domainconfig.DuplicateParams{BlockThreshold: c.Dup.BlockThreshold, WarnThreshold: c.Dup.WarnThreshold}
	dc.Rerank = domainconfig.RerankParams{Enabled: c.Rerank.Enabled, Weight: c.Rerank.Weight, TopN: c.Rerank.TopN}
	dc.HubThreshold = c.Hub.Threshold
	dc.Sleep = domainconfig.SleepParams{LightEveryNewNodes: c.Sleep.LightEveryNewNodes, DeepInterval: c.Sleep.DeepInterval}
	return dc
}
