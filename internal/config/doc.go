// Package config handles configuration loading for clipbook.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	database:
//	  path: "${CLIPBOOK_DB_PATH}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	monitor:
//	  poll_interval: "250ms"
//	  debounce: "100ms"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Database:
//
//	database:
//	  path: "~/.local/share/clipbook/clipbook.db"
//
// History retention:
//
//	history:
//	  max_items: 100
//	  max_age: "720h"
//
// Clipboard monitoring:
//
//	monitor:
//	  poll_interval: "250ms"
//	  debounce: "100ms"
//	  ignore_apps:
//	    - "PasswordManager"
//
// Automatic backups:
//
//	backup:
//	  directory: "~/.local/share/clipbook/backups"
//	  interval: "24h"
//	  keep_count: 10
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
// Load configuration from a path:
//
//	cfg, err := config.Load("/etc/clipbook/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Or start from defaults:
//
//	cfg := config.Default()
package config
