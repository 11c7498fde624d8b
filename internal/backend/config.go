// Package backend opens the configured storage and the optional sync
// publisher.
package backend

import (
	"fmt"

	"financy/internal/config"
)

type Type string

const (
	SQLite Type = Type(config.BackendSQLite)
	Memory Type = Type(config.BackendMemory)
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case SQLite, Memory:
		return true
	}
	return false
}

// Config holds what the factory needs to open a backend.
type Config struct {
	Type         Type
	SQLiteDBPath string

	// AMQP publishing is enabled when AMQPURL is set.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(c *config.Config) (Config, error) {
	if c == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	cfg := Config{
		Type:         Type(c.DataBackend),
		SQLiteDBPath: c.SQLiteDBPath,
		AMQPURL:      c.AMQPURL,
		AMQPExchange: c.AMQPExchange,
		AMQPQueue:    c.AMQPQueue,
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLite && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	return nil
}
