// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

/*
Package api provides the HTTP layer of Grouphub: a chi router, the JSON
response envelope and the handlers that expose the group components.

Endpoints:

	GET    /api/v1/health                          service health (also /live, /ready)
	GET    /metrics                                Prometheus metrics
	POST   /api/v1/auth/token                      development token (standalone only)
	GET    /api/v1/ws                              websocket session
	GET    /api/v1/explore?term=&page=             one explore page
	GET    /api/v1/search?q=&kind=                 one undebounced search
	GET    /api/v1/performance                     per-endpoint latency, cache stats
	GET    /api/v1/chat/{receiverId}/messages      conversation history
	POST   /api/v1/chat/{receiverId}/messages      send a message
	DELETE /api/v1/chat/{receiverId}/messages/{messageId}  delete own message (standalone)
	GET    /api/v1/groups/{id}/settings            settings form          (member)
	POST   /api/v1/groups/{id}/settings            submit changed fields  (owner)
	POST   /api/v1/groups/{id}/gallery             add video and images   (owner)
	DELETE /api/v1/groups/{id}/gallery/{mediaId}   remove an entry        (owner)
	GET    /api/v1/groups/{id}/domain              custom domain config   (member)
	POST   /api/v1/groups/{id}/domain              add a custom domain    (owner)
	GET    /api/v1/groups/{id}/members             members with presence  (member)

Every response uses models.APIResponse. Write endpoints return a
MutationResponse whose notifications are the ones raised while the request
ran; the same notifications also reach the user's open websocket sessions.

Group routes pass authz.Middleware, which resolves the caller's role in
the group from the backend before the handler runs. The settings read
route hands an unknown group on to its handler, which answers 404 with a
redirect to the group creation page.
*/
package api
