// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

/*
Package supervisor provides process supervision for Kindred using suture v4.

It implements a small hierarchical supervisor tree that manages the
lifecycle of the long-running services, with Erlang/OTP-style automatic
restart, failure isolation, and graceful shutdown.

# Overview

The tree organizes services into two layers:

	RootSupervisor ("kindred")
	├── CacheSupervisor ("cache-layer")
	│   └── SweepService (periodic expired-record purge)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crash in the sweeper is restarted within the cache layer and never
interrupts request serving; a crashing HTTP server is restarted without
touching the sweeper's schedule.

# Usage

	logger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	tree.AddCacheService(services.NewSweepService(store, sweepCfg, zl))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	errCh := tree.ServeBackground(ctx)
	// ... wait for signal, then cancel ctx and drain errCh

# Failure Handling

Suture keeps a per-supervisor failure counter with exponential decay.
Each crash increments it; when it exceeds FailureThreshold the supervisor
waits FailureBackoff before restarting, which prevents restart storms for
persistently failing services. Counters are per layer, so a flapping
sweeper never pushes the API layer into backoff.

# Service Interface

Services implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Returning an error triggers a restart; returning ctx.Err() after
cancellation is the normal shutdown path. Services that fail to stop
within ShutdownTimeout appear in UnstoppedServiceReport, which main logs
on exit.

# What Is Not Supervised

The cache store itself and the library index are not services: the store
is an embedded backend whose failures surface per-operation (reads degrade
to misses), and the library is immutable after startup. Only the two
components with their own goroutine lifecycles live in the tree.

Supervisor events are logged through the sutureslog adapter wired to the
zerolog-backed slog handler from internal/logging.
*/
package supervisor
