/*
Package runner drives concurrent simulated-user traffic against a target
HTTP API.

# Overview

A run spawns N simulated users per actor profile. Each user is one
goroutine running an isolated loop:

 1. Authenticate once and keep the bearer token for the session.
 2. Pick a task with probability proportional to its weight.
 3. Execute the task's single HTTP request and record the result.
 4. Sleep a uniformly random interval within the profile's bounds.
 5. Repeat until cancelled or the per-user iteration cap is reached.

Users share one connection-pooled HTTP client but no mutable state, so
simulated concurrency scales linearly with user count.

# Results

Results flow over a buffered channel to a single collector goroutine that
aggregates running statistics (counts, latency percentiles, per-task
tallies) and persists per-request metrics to SQLite in batches of 100.

No request failure is fatal: disallowed status codes, network errors, and
timeouts all become recorded failures and the user's loop continues. Failed
logins are surfaced as auth failures rather than silently masked, even
though the session then proceeds on a placeholder token.

# Cancellation

Runs end via the configured duration, the per-user iteration cap, or
Stop/StopWithContext. Cancellation abandons in-flight requests through
request contexts, drains the user goroutines, and flushes buffered metrics
before the run record is finalized.

# Determinism

With a non-zero scenario seed, each user derives its own PRNG from the seed
and its spawn index, making task sequences reproducible across runs.
*/
package runner
