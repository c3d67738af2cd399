package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/napolitain/solver-mutations/internal/market"
)

const envPrefix = "MUTATIONS_"

// ServerConfig holds the process configuration
type ServerConfig struct {
	Addr         string
	DataDir      string
	SnapshotPath string
	RedisAddr    string
	BazaarURL    string
	RateLimit    float64
	Burst        int
	PollInterval time.Duration
	CORSOrigins  []string
	LogLevel     string
	LogFormat    string
}

// configResolver resolves one value as flag, then environment, then default
type configResolver struct {
	flagName    string
	defaultVal  string
	description string
	setter      func(*ServerConfig, string) error
}

func (r configResolver) envVarName() string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(r.flagName, "-", "_"))
}

func resolvers() []configResolver {
	return []configResolver{
		{
			flagName:    "addr",
			defaultVal:  ":8080",
			description: "HTTP listen address",
			setter:      func(c *ServerConfig, v string) error { c.Addr = v; return nil },
		},
		{
			flagName:    "data",
			defaultVal:  "",
			description: "data directory with mutations.json, crops.json, drops.csv and overrides.yaml (empty uses the embedded tables)",
			setter:      func(c *ServerConfig, v string) error { c.DataDir = v; return nil },
		},
		{
			flagName:    "snapshot",
			defaultVal:  "prices.json",
			description: "bazaar price snapshot file used when the API is down (empty disables)",
			setter:      func(c *ServerConfig, v string) error { c.SnapshotPath = v; return nil },
		},
		{
			flagName:    "redis",
			defaultVal:  "",
			description: "redis address for sharing prices between replicas (empty disables)",
			setter:      func(c *ServerConfig, v string) error { c.RedisAddr = v; return nil },
		},
		{
			flagName:    "bazaar-url",
			defaultVal:  market.DefaultBazaarURL,
			description: "bazaar endpoint",
			setter:      func(c *ServerConfig, v string) error { c.BazaarURL = v; return nil },
		},
		{
			flagName:    "rate-limit",
			defaultVal:  "10",
			description: "requests per second per client IP, 0 disables limiting",
			setter: func(c *ServerConfig, v string) error {
				f, err := strconv.ParseFloat(v, 64)
				if err != nil || f < 0 {
					return fmt.Errorf("rate-limit %q must be a non-negative number", v)
				}
				c.RateLimit = f
				return nil
			},
		},
		{
			flagName:    "burst",
			defaultVal:  "20",
			description: "rate limiter burst size",
			setter: func(c *ServerConfig, v string) error {
				n, err := strconv.Atoi(v)
				if err != nil || n < 1 {
					return fmt.Errorf("burst %q must be a positive integer", v)
				}
				c.Burst = n
				return nil
			},
		},
		{
			flagName:    "poll-interval",
			defaultVal:  "5m",
			description: "bazaar refresh interval, 0 disables polling",
			setter: func(c *ServerConfig, v string) error {
				d, err := time.ParseDuration(v)
				if err != nil || d < 0 {
					return fmt.Errorf("poll-interval %q must be a non-negative duration", v)
				}
				c.PollInterval = d
				return nil
			},
		},
		{
			flagName:    "cors-origins",
			defaultVal:  "*",
			description: "comma-separated allowed CORS origins",
			setter: func(c *ServerConfig, v string) error {
				c.CORSOrigins = nil
				for _, o := range strings.Split(v, ",") {
					if o = strings.TrimSpace(o); o != "" {
						c.CORSOrigins = append(c.CORSOrigins, o)
					}
				}
				return nil
			},
		},
		{
			flagName:    "log-level",
			defaultVal:  "info",
			description: "log level: debug, info, warn, error",
			setter:      func(c *ServerConfig, v string) error { c.LogLevel = v; return nil },
		},
		{
			flagName:    "log-format",
			defaultVal:  "text",
			description: "log format: text or json",
			setter: func(c *ServerConfig, v string) error {
				v = strings.ToLower(v)
				if v != "text" && v != "json" {
					return fmt.Errorf("log-format %q must be text or json", v)
				}
				c.LogFormat = v
				return nil
			},
		},
	}
}

// loadServerConfig parses args and resolves every option
func loadServerConfig(args []string, getenv func(string) string) (ServerConfig, error) {
	cfg := ServerConfig{}
	rs := resolvers()

	fs := pflag.NewFlagSet("mutations-server", pflag.ContinueOnError)
	flagVars := make(map[string]*string, len(rs))
	for _, r := range rs {
		desc := fmt.Sprintf("%s (env %s, default %q)", r.description, r.envVarName(), r.defaultVal)
		flagVars[r.flagName] = fs.String(r.flagName, "", desc)
	}
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	for _, r := range rs {
		var value string
		switch {
		case fs.Changed(r.flagName):
			value = *flagVars[r.flagName]
		case getenv(r.envVarName()) != "":
			value = getenv(r.envVarName())
		default:
			value = r.defaultVal
		}
		if err := r.setter(&cfg, value); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}
