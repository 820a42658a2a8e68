// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

/*
Package auth authenticates requests with HS256 bearer tokens.

Grouphub does not log users in itself. The identity provider issues tokens
signed with the shared JWT_SECRET; this package validates them and places
the claims (and the user ID, for logging) in the request context.

Tokens are read from, in order:

  - the Authorization header ("Bearer <token>")
  - the "token" query parameter (websocket upgrades)
  - the "token" cookie

Usage:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
	    return err
	}
	r.Use(auth.NewMiddleware(jwtManager).Authenticate)

	// in a handler
	userID := auth.UserIDFromContext(r.Context())
*/
package auth
