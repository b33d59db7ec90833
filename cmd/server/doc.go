// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

/*
Package main is the entry point for the plexrec server.

plexrec keeps a Plex playlist filled with unwatched movies and shows that
sit closest, in embedding space, to what has already been watched. Each run
syncs the Plex catalogue into an embedded vector index, averages the watched
embeddings into a preference vector, retrieves and re-ranks the nearest
unwatched items and reconciles the playlist.

# Application Architecture

Components run under a Suture v4 supervision tree:

	RootSupervisor ("plexrec")
	├── DataSupervisor ("data-layer")
	│   └── Index GC (BadgerDB value log collection)
	├── WorkerSupervisor ("worker-layer")
	│   ├── Run worker (single consumer of the run queue)
	│   ├── Run scheduler (startup and interval triggers)
	│   └── Embedding idle unloader
	└── APISupervisor ("api-layer")
	    └── HTTP server (suggestions, run trigger, health, metrics)

Every run, whether triggered by the scheduler or by POST /api/v1/suggestions,
goes through the same bounded queue so at most one run executes at a time.

# Configuration

Configuration is loaded via Koanf v2 (defaults, optional config file,
environment variables). The essentials:

	PLEX_URL=http://plex.local:32400
	PLEX_TOKEN=...
	EMBEDDING_BASE_URL=http://localhost:11434/v1
	EMBEDDING_MODEL=jinaai/jina-embeddings-v2-small-en
	INDEX_PATH=/data/index
	PLAYLIST_NAME=Suggestions

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains for
SHUTDOWN_TIMEOUT, the run queue is closed and the index is flushed
and closed last.
*/
package main
