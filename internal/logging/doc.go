// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

// Package logging provides the zerolog-based structured logger shared by
// every plexrec component.
//
// The global logger is configured once from main via Init. Components that
// take an explicit zerolog.Logger (the engine, the queue, supervisor
// services) receive a child of it, usually tagged with a component field:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logger := logging.WithComponent("engine")
//
// # Request Context
//
// HTTP middleware stores a request ID and a correlation ID on the request
// context. Ctx, CtxWarn and CtxError return events carrying both fields so
// handler logs can be joined with access logs:
//
//	logging.CtxWarn(r.Context()).Err(err).Msg("run rejected")
//
// # slog Bridge
//
// Libraries that log through log/slog (suture via sutureslog, watermill via
// NewSlogLogger) are bridged onto zerolog with SlogHandler so all output
// shares one format and level.
package logging
