package node

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
)

// ListenConfig describes the local bind address for inbound connections.
// A zero value with Disabled set means the node accepts no inbound peers.
type ListenConfig struct {
	Host     string
	Port     int
	Disabled bool
}

// Config is the fully-resolved node configuration, after defaults have been
// deep-merged with whatever the caller provided via ConfigFromMap.
type Config struct {
	Listen         ListenConfig
	Connect        []string
	DNS            bool
	MaxConnections int
	MaxAddr        int
	MaxQueue       int
	MaxInv         int
	MaxInvCache    int

	IntervalQueue    int // seconds
	IntervalInvQueue int // seconds
	IntervalAddrs    int // seconds
	IntervalConnect  int // seconds

	HeadersOnly bool

	// Workers sizes the pool used for store writes and script verification.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int
}

func DefaultConfig() Config {
	return Config{
		Listen:           ListenConfig{Host: "0.0.0.0", Port: 8333},
		Connect:          nil,
		DNS:              true,
		MaxConnections:   8,
		MaxAddr:          256,
		MaxQueue:         64,
		MaxInv:           128,
		MaxInvCache:      1024,
		IntervalQueue:    1,
		IntervalInvQueue: 1,
		IntervalAddrs:    30,
		IntervalConnect:  10,
		HeadersOnly:      false,
		Workers:          0,
	}
}

// ConfigFromMap deep-merges raw onto DefaultConfig(). Keys not recognized are
// logged at warn and otherwise ignored, per the node's "unrecognized keys are
// ignored with a warning" contract.
func ConfigFromMap(raw map[string]interface{}, warn func(key string)) (Config, error) {
	cfg := DefaultConfig()
	if raw == nil {
		return cfg, nil
	}

	for key, value := range raw {
		switch key {
		case "listen":
			sub, ok := value.(map[string]interface{})
			if !ok {
				return Config{}, fmt.Errorf("node: config: %q must be a mapping", key)
			}
			if err := mergeListen(&cfg.Listen, sub, warn); err != nil {
				return Config{}, err
			}
		case "connect":
			peers, err := toStringSlice(value)
			if err != nil {
				return Config{}, fmt.Errorf("node: config: %q: %w", key, err)
			}
			cfg.Connect = NormalizePeers(peers...)
		case "dns":
			b, err := toBool(value)
			if err != nil {
				return Config{}, fmt.Errorf("node: config: %q: %w", key, err)
			}
			cfg.DNS = b
		case "headers_only":
			b, err := toBool(value)
			if err != nil {
				return Config{}, fmt.Errorf("node: config: %q: %w", key, err)
			}
			cfg.HeadersOnly = b
		case "workers":
			n, err := toInt(value)
			if err != nil {
				return Config{}, fmt.Errorf("node: config: %q: %w", key, err)
			}
			cfg.Workers = n
		case "max":
			sub, ok := value.(map[string]interface{})
			if !ok {
				return Config{}, fmt.Errorf("node: config: %q must be a mapping", key)
			}
			if err := mergeMaxLimits(&cfg, sub, warn); err != nil {
				return Config{}, err
			}
		case "intervals":
			sub, ok := value.(map[string]interface{})
			if !ok {
				return Config{}, fmt.Errorf("node: config: %q must be a mapping", key)
			}
			if err := mergeIntervals(&cfg, sub, warn); err != nil {
				return Config{}, err
			}
		default:
			if warn != nil {
				warn(key)
			}
		}
	}

	return cfg, nil
}

func mergeListen(dst *ListenConfig, raw map[string]interface{}, warn func(key string)) error {
	for key, value := range raw {
		switch key {
		case "host":
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("listen.host must be a string")
			}
			dst.Host = s
		case "port":
			n, err := toInt(value)
			if err != nil {
				return fmt.Errorf("listen.port: %w", err)
			}
			dst.Port = n
		case "disabled":
			b, err := toBool(value)
			if err != nil {
				return fmt.Errorf("listen.disabled: %w", err)
			}
			dst.Disabled = b
		default:
			if warn != nil {
				warn("listen." + key)
			}
		}
	}
	return nil
}

func mergeMaxLimits(cfg *Config, raw map[string]interface{}, warn func(key string)) error {
	fields := map[string]*int{
		"connections": &cfg.MaxConnections,
		"addr":        &cfg.MaxAddr,
		"queue":       &cfg.MaxQueue,
		"inv":         &cfg.MaxInv,
		"inv_cache":   &cfg.MaxInvCache,
	}
	for key, value := range raw {
		dst, ok := fields[key]
		if !ok {
			if warn != nil {
				warn("max." + key)
			}
			continue
		}
		n, err := toInt(value)
		if err != nil {
			return fmt.Errorf("max.%s: %w", key, err)
		}
		*dst = n
	}
	return nil
}

func mergeIntervals(cfg *Config, raw map[string]interface{}, warn func(key string)) error {
	fields := map[string]*int{
		"queue":     &cfg.IntervalQueue,
		"inv_queue": &cfg.IntervalInvQueue,
		"addrs":     &cfg.IntervalAddrs,
		"connect":   &cfg.IntervalConnect,
	}
	for key, value := range raw {
		dst, ok := fields[key]
		if !ok {
			if warn != nil {
				warn("intervals." + key)
			}
			continue
		}
		n, err := toInt(value)
		if err != nil {
			return fmt.Errorf("intervals.%s: %w", key, err)
		}
		*dst = n
	}
	return nil
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func toBool(v interface{}) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", v)
	}
	return b, nil
}

func toStringSlice(v interface{}) ([]string, error) {
	switch s := v.(type) {
	case []string:
		return s, nil
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string entries, got %T", item)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", v)
	}
}

// ConfigFromFile reads path as JSON and deep-merges it onto DefaultConfig()
// via ConfigFromMap. path is resolved through readFileByPath, which rejects
// directory-traversal names in its final component.
func ConfigFromFile(path string, warn func(key string)) (Config, error) {
	raw, err := readFileByPath(path)
	if err != nil {
		return Config{}, fmt.Errorf("node: config: read %s: %w", path, err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return Config{}, fmt.Errorf("node: config: parse %s: %w", path, err)
	}
	return ConfigFromMap(m, warn)
}

// NormalizePeers dedupes and splits comma-joined peer address tokens,
// preserving first-seen order.
func NormalizePeers(raw ...string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, token := range raw {
		for _, p := range strings.Split(token, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

func ValidateConfig(cfg Config) error {
	if !cfg.Listen.Disabled {
		if err := validateAddr(fmt.Sprintf("%s:%d", cfg.Listen.Host, cfg.Listen.Port)); err != nil {
			return fmt.Errorf("invalid listen address: %w", err)
		}
	}
	for _, peer := range cfg.Connect {
		if err := validatePeerAddr(peer); err != nil {
			return fmt.Errorf("invalid peer %q: %w", peer, err)
		}
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("max.connections must be > 0")
	}
	if cfg.MaxQueue <= 0 {
		return fmt.Errorf("max.queue must be > 0")
	}
	if cfg.MaxInvCache <= 0 {
		return fmt.Errorf("max.inv_cache must be > 0")
	}
	return nil
}

func validateAddr(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return fmt.Errorf("empty address")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if strings.TrimSpace(port) == "" {
		return fmt.Errorf("missing port")
	}
	if strings.Contains(host, " ") {
		return fmt.Errorf("invalid host")
	}
	return nil
}

func validatePeerAddr(addr string) error {
	if err := validateAddr(addr); err != nil {
		return err
	}
	host, _, _ := net.SplitHostPort(addr)
	if strings.TrimSpace(host) == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
