// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

// Package embedding provides the embedding provider used to vectorise
// catalogue documents.
//
// The layers compose as Guarded(Lazy(OpenAI)):
//   - OpenAI calls any OpenAI-compatible /v1/embeddings endpoint
//   - Lazy builds the provider client on first use and drops it after an
//     idle period
//   - Guarded runs calls behind a circuit breaker and reports every failure
//     as recommend.ErrBackendUnavailable
package embedding
