// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

/*
Package config loads Grouphub configuration with koanf.

Sources are layered: built-in defaults, then an optional YAML file
(CONFIG_PATH, ./config.yaml or /etc/grouphub/config.yaml), then environment
variables. Only variables listed in the env mapping are read; everything
else in the environment is ignored.

Example config.yaml:

	server:
	  port: 8080
	backend:
	  mode: remote
	  url: https://backend.example.com
	realtime:
	  transport: nats
	  embedded_server: false
	  url: nats://nats:4222
	search:
	  debounce: 1s

Common environment variables:

	HTTP_PORT, JWT_SECRET, CORS_ORIGINS
	BACKEND_MODE (remote|standalone), BACKEND_URL, SQLITE_PATH, UPLOAD_DIR
	REALTIME_TRANSPORT (nats|memory), NATS_URL, NATS_EMBEDDED
	STORE_DRIVER (memory|badger), STORE_PATH
	SEARCH_DEBOUNCE, LOG_LEVEL, LOG_FORMAT
*/
package config
