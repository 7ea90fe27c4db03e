package config

import (
	"fmt"
	"net/url"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Upstream.validate(); err != nil {
		return fmt.Errorf("upstream: %w", err)
	}
	if err := c.Import.validate(); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	if c.Redis.URL != "" && c.Redis.LockTTL <= 0 {
		return fmt.Errorf("redis: lock_ttl must be > 0 (got %v)", c.Redis.LockTTL)
	}
	return nil
}

func (u *UpstreamConfig) validate() error {
	if u.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	parsed, err := url.Parse(u.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("base_url %q is not an absolute URL", u.BaseURL)
	}
	if u.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %v)", u.Timeout)
	}
	if u.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be > 0 (got %v)", u.RequestsPerSecond)
	}
	if u.Burst < 1 {
		return fmt.Errorf("burst must be >= 1 (got %d)", u.Burst)
	}
	return nil
}

func (i *ImportConfig) validate() error {
	if i.MaxBatchOps < MinBatchOps || i.MaxBatchOps > MaxStoreBatchOps {
		return fmt.Errorf("max_batch_ops must be in [%d, %d] (got %d)", MinBatchOps, MaxStoreBatchOps, i.MaxBatchOps)
	}
	if i.ReadConcurrency < 1 {
		return fmt.Errorf("read_concurrency must be >= 1 (got %d)", i.ReadConcurrency)
	}
	if i.DefaultLanguage == "" {
		return fmt.Errorf("default_language is required")
	}
	if i.Interval <= 0 {
		return fmt.Errorf("interval must be > 0 (got %v)", i.Interval)
	}
	return nil
}
