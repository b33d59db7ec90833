// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

/*
Package config provides centralized configuration management for plexrec.

# Configuration Sources

Configuration is layered with Koanf v2, later sources winning:
  - Built-in defaults (defaultConfig)
  - Optional YAML file: $CONFIG_PATH, ./config.yaml or /etc/plexrec/config.yaml
  - Environment variables through an explicit mapping table

Unknown environment variables are ignored.

# Sections

	plex:
	  url: http://plex.local:32400
	  token: xxxxxxxx
	  movie_section: Movies
	  show_section: TV Shows
	embedding:
	  base_url: http://localhost:7997/v1
	  model: jinaai/jina-embeddings-v2-small-en
	index:
	  path: /data/index
	  metric: cosine
	playlist:
	  name: Suggestions
	  prune: true
	weighting:
	  stars:
	    include: false
	    default: 2.5
	  added_penalty: 0.000000001
	retrieval:
	  n_results: 10
	  n_rerank: 30
	  kinds: [movie, show]
	worker:
	  run_on_startup: false
	  run_interval: 24h

# Environment Variables

Commonly used overrides:
  - PLEX_URL, PLEX_TOKEN (required)
  - EMBEDDING_BASE_URL, EMBEDDING_MODEL, EMBEDDING_API_KEY (or OPENAI_API_KEY)
  - INDEX_PATH, INDEX_IN_MEMORY, INDEX_METRIC
  - PLAYLIST_NAME, PLAYLIST_PRUNE
  - WEIGHTING_STARS_INCLUDE, WEIGHTING_STARS_DEFAULT, WEIGHTING_ADDED_PENALTY
  - N_RESULTS, N_RERANK, KINDS (comma-separated)
  - RUN_ON_STARTUP, RUN_INTERVAL, RUN_TIMEOUT
  - HTTP_HOST, HTTP_PORT, CORS_ORIGINS, RATE_LIMIT_PER_MINUTE
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	engineCfg, err := cfg.Recommend()
*/
package config
