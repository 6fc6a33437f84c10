// Package resources describes how the browser client library is served.
package resources

import (
	"strings"

	"github.com/jxstanford/bokeh/config"
)

var logLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true,
}

type Resources struct {
	// Mode is "server", "inline" or "cdn".
	Mode string
	// LogLevel is passed to the client library's logger.
	LogLevel string
}

// New derives the resources settings from cfg. Unknown log levels become "info".
func New(cfg *config.Config) Resources {
	level := strings.ToLower(strings.TrimSpace(cfg.ClientLogLevel))
	if !logLevels[level] {
		level = "info"
	}
	mode := cfg.ResourcesMode
	if mode == "" {
		mode = "server"
	}
	return Resources{Mode: mode, LogLevel: level}
}
