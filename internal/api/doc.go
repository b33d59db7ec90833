// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

/*
Package api provides the HTTP API for plexrec.

Routes:

	GET  /api/v1/suggestions?n=5      first n items of the suggestions playlist
	POST /api/v1/suggestions          enqueue a full run, body {"n": 10}
	GET  /api/v1/suggestions/status   current and last run
	GET  /api/v1/health/live          liveness with circuit breaker states
	GET  /api/v1/health/ready         503 while any circuit breaker is open
	GET  /metrics                     Prometheus exposition

Every JSON response uses the APIResponse envelope. Run errors map to
status codes as follows:

	recommend.ErrEmptyInput          422 EMPTY_INPUT
	recommend.ErrBackendUnavailable  503 BACKEND_UNAVAILABLE
	recommend.ErrRunInProgress       409 RUN_IN_PROGRESS
	runqueue.ErrQueueFull            503 QUEUE_FULL
	validation failures              400 VALIDATION_ERROR

POST only enqueues; the single run worker executes the run later, so the
response is 202 with the run ID to look for in the status endpoint.
*/
package api
