// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

/*
Package metrics provides Prometheus metrics for the suggestion service.

# Overview

The package provides metrics for:
  - HTTP request latency and throughput
  - Suggestion runs (outcome, duration, last success)
  - Catalogue sync outcomes and resolution gaps
  - Playlist mutations
  - Embedding provider and Plex API calls
  - Circuit breaker state transitions

All collectors register with the default registry through promauto and are
exposed at /metrics in Prometheus text format:

	curl http://localhost:8484/metrics

# Run Metrics

  - plexrec_runs_total: Runs by trigger and result (counter)
    Labels: trigger (api, schedule, startup), result
  - plexrec_run_duration_seconds: Run latency (histogram)
  - plexrec_run_last_success_timestamp: Unix time of last success (gauge)
  - plexrec_run_queue_depth: Requests waiting for the worker (gauge)

RecordRun derives every per-run series from a recommend.RunResult, so the
engine itself stays free of metrics code.

# Example Alerts

	- alert: PlexrecRunsFailing
	  expr: increase(plexrec_runs_total{result!="success",result!="busy"}[6h]) > 3
	- alert: CircuitBreakerOpen
	  expr: circuit_breaker_state == 2
	  for: 5m
*/
package metrics
