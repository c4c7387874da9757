package server

import (
	"fmt"
	"time"
)

// Config holds telemetry server settings.
type Config struct {
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`
	// ClientBuffer is the number of messages queued per client before the
	// client is dropped as too slow.
	ClientBuffer int           `json:"client_buffer" yaml:"client_buffer"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:   "127.0.0.1:8090",
		ClientBuffer: 256,
		WriteTimeout: 5 * time.Second,
	}
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("%w: listen address is required", ErrInvalidConfig)
	}
	if c.ClientBuffer <= 0 {
		return fmt.Errorf("%w: client buffer must be positive", ErrInvalidConfig)
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("%w: write timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
