// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

/*
Package supervisor provides process supervision for plexrec using suture v4.

	RootSupervisor ("plexrec")
	├── DataSupervisor ("data-layer")
	│   └── IndexGCService
	├── WorkerSupervisor ("worker-layer")
	│   ├── RunWorkerService
	│   ├── RunSchedulerService
	│   └── embedding.Lazy (idle unloader)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services restart with suture's backoff. Supervisor events are
logged through sutureslog, bridged to zerolog by logging.NewSlogLogger.

Usage in main.go:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    logging.Fatal().Err(err).Msg("supervisor")
	}
	tree.AddWorkerService(services.NewRunWorkerService(engine, queue, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, timeout, logger))

	errCh := tree.ServeBackground(ctx)

After shutdown, UnstoppedServiceReport lists services that did not stop
within ShutdownTimeout.
*/
package supervisor
