// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

/*
Package services provides suture.Service wrappers for plexrec components.

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

and returns ctx.Err() once its context is canceled.

# Available Services

Run Worker (RunWorkerService):
  - The only subscriber of the run queue
  - Executes one recommendation run at a time and records run metrics

Run Scheduler (RunSchedulerService):
  - Enqueues a run at startup when configured
  - Enqueues a run every RunInterval; zero disables the schedule

Index GC (IndexGCService):
  - Periodic BadgerDB value log garbage collection for the vector index

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown

# Placement

	tree.AddDataService(services.NewIndexGCService(index, logger))
	tree.AddWorkerService(services.NewRunWorkerService(engine, queue, logger))
	tree.AddWorkerService(services.NewRunSchedulerService(queue, cfg, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, timeout, logger))

The embedding idle unloader (embedding.Lazy) is also a suture.Service and
lives in the worker layer.
*/
package services
