package config

import "fmt"

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if err := RequireNonEmpty(c.DatabaseURL, "DATABASE_URL"); err != nil {
			return fmt.Errorf("STORE_DRIVER=%s: %w", c.StoreDriver, err)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.ESUser != "" {
		if err := RequireNonEmpty(c.ESPassword, "ES_PASSWORD"); err != nil {
			return fmt.Errorf("ES_USER is set: %w", err)
		}
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT out of range: %d", c.ServerPort)
	}
	return nil
}
