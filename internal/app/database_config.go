package app

import (
	"strings"

	"github.com/charlesng35/userhub/internal/database"
)

// DatabaseOpenConfig converts the application database configuration into the
// database package representation.
func (c DatabaseConfig) DatabaseOpenConfig() database.Config {
	cfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(c.Driver)),
		Path:   c.Path,
		DSN:    c.DSN,
	}

	switch cfg.Driver {
	case "postgres":
		cfg.Host = c.Postgres.Host
		cfg.Port = c.Postgres.Port
		cfg.User = c.Postgres.Username
		cfg.Password = c.Postgres.Password
		cfg.Name = c.Postgres.Database
	case "mysql":
		cfg.Host = c.MySQL.Host
		cfg.Port = c.MySQL.Port
		cfg.User = c.MySQL.Username
		cfg.Password = c.MySQL.Password
		cfg.Name = c.MySQL.Database
	}

	return cfg
}
