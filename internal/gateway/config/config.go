// Package config is AgentWallet's running configuration, bound from
// viper-resolved flags the same way hivemind/config/config.go wraps
// options.Options — simplified to the handful of settings this gateway
// actually needs instead of a generic-apiserver option group tree.
package config

import "time"

// Options is the flag/env/file-bindable input.
type Options struct {
	ListenAddress      string        `mapstructure:"listen-address"`
	BoltPath           string        `mapstructure:"bolt-path"`
	LogLevel           string        `mapstructure:"log-level"`
	DeadManSweepEvery  time.Duration `mapstructure:"deadman-sweep-interval"`
	ReconcileEvery     time.Duration `mapstructure:"reconcile-interval"`
}

// NewOptions returns Options populated with defaults.
func NewOptions() *Options {
	return &Options{
		ListenAddress:     "127.0.0.1:8080",
		BoltPath:          "agentwallet.db",
		LogLevel:          "info",
		DeadManSweepEvery: 10 * time.Second,
		ReconcileEvery:    time.Minute,
	}
}

// Complete fills in defaults for any field left at its zero value.
func (o *Options) Complete() error {
	if o.ListenAddress == "" {
		o.ListenAddress = "127.0.0.1:8080"
	}
	if o.BoltPath == "" {
		o.BoltPath = "agentwallet.db"
	}
	if o.LogLevel == "" {
		o.LogLevel = "info"
	}
	if o.DeadManSweepEvery <= 0 {
		o.DeadManSweepEvery = 10 * time.Second
	}
	if o.ReconcileEvery <= 0 {
		o.ReconcileEvery = time.Minute
	}
	return nil
}

// Config is the running configuration structure of the gateway.
type Config struct {
	*Options
}

// CreateConfigFromOptions mirrors hivemind/config's
// CreateConfigFromOptions(opts) constructor shape.
func CreateConfigFromOptions(opts *Options) (*Config, error) {
	if err := opts.Complete(); err != nil {
		return nil, err
	}
	return &Config{opts}, nil
}
