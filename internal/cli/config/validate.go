package config

import "fmt"

// Validate checks the fields every command can rely on. Connection
// details get their own check so help and init keep working without
// them.
func (c *Config) Validate() error {
	if c.ClickHouse.Port < 0 || c.ClickHouse.Port > 65535 {
		return fmt.Errorf("clickhouse port %d is out of range", c.ClickHouse.Port)
	}
	switch c.OutputFormat {
	case "", "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("unknown output format %q (want auto, text, markdown, or json)", c.OutputFormat)
	}
	return nil
}

// ValidateConnection checks the fields required to reach ClickHouse.
// Commands that talk to the engine call this before dialing.
func (c *Config) ValidateConnection() error {
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse host is required\nHint: pass --host, set CHDOC_CLICKHOUSE_HOST, or run 'chdoc init'")
	}
	if c.ClickHouse.Port == 0 {
		return fmt.Errorf("clickhouse port is required\nHint: pass --port or set CHDOC_CLICKHOUSE_PORT")
	}
	if c.ClickHouse.User == "" {
		return fmt.Errorf("clickhouse user is required\nHint: pass --user or set CHDOC_CLICKHOUSE_USER")
	}
	return nil
}
