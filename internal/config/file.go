package config

import "time"

// HostOverride holds request customization for a single host.
// This allows authenticated scanning of specific targets without
// leaking the credentials to every host in scope.
type HostOverride struct {
	// Cookie is an HTTP cookie to send with requests to this host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this host.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// File represents the structure of the .ravenx configuration file.
// Scalar settings mirror Config fields; CLI flags take precedence over
// file values.
type File struct {
	// PerHostRate is the sustained request rate per host (requests per
	// second).
	PerHostRate float64 `yaml:"per_host_rate,omitempty"`

	// MaxPagesPerHost caps fetch attempts per host.
	MaxPagesPerHost int `yaml:"max_pages_per_host,omitempty"`

	// TimeBudgetSec is the session wall-clock limit in seconds.
	TimeBudgetSec int `yaml:"time_budget_sec,omitempty"`

	// Concurrency is the number of crawl workers.
	Concurrency int `yaml:"concurrency,omitempty"`

	// TimeoutSec is the per-request timeout in seconds.
	TimeoutSec int `yaml:"timeout_sec,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"user_agent,omitempty"`

	// AllowHosts are extra hosts admitted into scope. Entries may use
	// "*.domain" wildcards.
	AllowHosts []string `yaml:"allow_hosts,omitempty"`

	// SlackWebhook is an incoming-webhook URL for high-severity
	// highlights.
	SlackWebhook string `yaml:"slack_webhook,omitempty"`

	// Hosts maps host names to their request overrides.
	Hosts map[string]HostOverride `yaml:"hosts,omitempty"`

	// Defaults contains override values applied to all hosts unless
	// shadowed by a host-specific entry.
	Defaults HostOverride `yaml:"defaults,omitempty"`
}

// HostConfig returns the request overrides for a specific host,
// merging the host-specific entry over the defaults.
func (cf *File) HostConfig(host string) HostOverride {
	result := cf.Defaults

	if override, ok := cf.Hosts[host]; ok {
		if override.Cookie != "" {
			result.Cookie = override.Cookie
		}
		if len(override.Headers) > 0 {
			merged := make(map[string]string, len(result.Headers)+len(override.Headers))
			for k, v := range result.Headers {
				merged[k] = v
			}
			for k, v := range override.Headers {
				merged[k] = v
			}
			result.Headers = merged
		}
	}

	return result
}

// ApplyFile copies the file's scalar settings into the Config. Only
// set (non-zero) file values are applied, so callers can layer CLI
// flag overrides on top afterwards.
func (c *Config) ApplyFile(cf *File) {
	if cf == nil {
		return
	}
	if cf.PerHostRate > 0 {
		c.PerHostRate = cf.PerHostRate
	}
	if cf.MaxPagesPerHost > 0 {
		c.MaxPagesPerHost = cf.MaxPagesPerHost
	}
	if cf.TimeBudgetSec > 0 {
		c.TimeBudget = time.Duration(cf.TimeBudgetSec) * time.Second
	}
	if cf.Concurrency > 0 {
		c.Concurrency = cf.Concurrency
	}
	if cf.TimeoutSec > 0 {
		c.Timeout = time.Duration(cf.TimeoutSec) * time.Second
	}
	if cf.UserAgent != "" {
		c.UserAgent = cf.UserAgent
	}
	if len(cf.AllowHosts) > 0 {
		c.AllowHosts = append(c.AllowHosts, cf.AllowHosts...)
	}
	if cf.SlackWebhook != "" {
		c.SlackWebhook = cf.SlackWebhook
	}
	c.Overrides = cf
}
