// Package config handles configuration loading for the quanta server.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion. The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${QUANTA_JWT_SECRET}"
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//	  base_url: "https://quanta.example.edu"
//
// Database:
//
//	database:
//	  path: "/var/lib/quanta/quanta.db"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${QUANTA_JWT_SECRET}"  # signs student API tokens
//	  open_signup: false                  # allow ungated admin signup (bootstrap)
//	  session_duration: "168h"            # admin browser sessions
//	  token_duration: "24h"               # student API tokens
//
// Tailscale:
//
//	tailscale:
//	  enabled: false
//	  hostname: "quanta"
//	  auth_key: "${TS_AUTHKEY}"
//	  funnel: false
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - HTTP address presence (unless Tailscale serving is enabled)
//   - JWT secret minimum length (32 bytes, when set)
//   - Database path presence
//   - Duration format validity
package config
