package app

import (
	"strings"

	"github.com/charlesng35/userhub/pkg/logger"
)

// ConfigureLogging initialises the global logger at the configured level,
// defaulting to info when none is set.
func ConfigureLogging(level string) error {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	return logger.Init(level)
}
