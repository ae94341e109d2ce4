// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

/*
Package websocket pushes refresh snapshots to connected frontend clients.

The package implements a hub-and-spoke pattern on gorilla/websocket: a Hub
owns the client set and broadcasts typed messages; each Client runs a read
goroutine (handles pings) and a write goroutine (delivers messages, sends
protocol pings).

Message types mirror the tracker engine's update kinds:

  - session_update: the active game changed (payload: GameSession or null)
  - achievements_update: a fresh achievement set for the active game
  - stats_update: fresh per-game stats
  - recent_update: recent cross-game unlocks
  - progress_update: the library-wide progress aggregate
  - refresh_completed: a refresh cycle finished (trigger, result)
  - ping / pong: client keepalive

Usage:

	hub := websocket.NewHub()
	go hub.RunWithContext(ctx)

	engine.OnUpdate(func(kind string, payload interface{}) {
	    hub.Broadcast(kind, payload)
	})

Slow clients are dropped rather than blocking a broadcast; the next refresh
cycle re-delivers current state to whoever is still connected.

Connection lifecycle:

 1. Client connects via HTTP upgrade (internal/api /ws handler)
 2. Hub registers client, client starts read/write goroutines
 3. Hub broadcasts engine updates to all clients
 4. Client disconnects (network error or explicit close)
 5. Hub unregisters client and cleans up

Timeouts: 10s write deadline, 60s pong wait, pings every 54s, 64KB read
limit (clients only send control messages).
*/
package websocket
