// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

/*
Command server runs Grouphub: the group settings, gallery and custom
domain API, and the per-browser realtime sessions (presence, search,
explore, chat) served over websockets.

# Startup

 1. .env (godotenv), then koanf: defaults, YAML file, environment
 2. zerolog
 3. Realtime transport: embedded NATS server and bus, or the in-process bus
 4. Backend: remote server actions over HTTP, or standalone SQLite plus
    an upload directory
 5. Session stores (memory or badger), hub, presence observer, sessions
 6. JWT and Casbin group roles
 7. Chi router and HTTP server
 8. Suture tree until SIGINT or SIGTERM

# Modes

Remote:

	export BACKEND_MODE=remote
	export BACKEND_URL=https://app.example.com/api/actions
	export BACKEND_UPLOAD_URL=https://app.example.com/api/upload
	export JWT_SECRET=$(openssl rand -base64 32)
	./grouphub

Standalone, single instance, with development tokens:

	export BACKEND_MODE=standalone
	export SQLITE_PATH=./grouphub.db UPLOAD_DIR=./uploads SEED_PATH=./seed.json
	export REALTIME_TRANSPORT=memory
	./grouphub
	curl -X POST localhost:8080/api/v1/auth/token -d '{"userId":"alice"}'

Several instances share presence and chat through one NATS server:

	export NATS_EMBEDDED=false NATS_URL=nats://nats:4222

Set -ldflags "-X main.version=1.2.3" to stamp the version reported by
/api/v1/health.
*/
package main
