// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

/*
Package middleware provides HTTP middleware for the plexrec API.

  - RequestID: X-Request-ID propagation with logging correlation
  - PrometheusMetrics: request count, latency and in-flight gauge

Both have the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

PrometheusMetrics labels requests with the matched chi route pattern, so
path parameters and unknown paths do not create new series.
*/
package middleware
