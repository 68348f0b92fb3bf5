// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

/*
Package provider is the resilience layer between the recommendation engine
and the AI backends.

The package does not speak any vendor wire protocol. Adapters implement the
small Provider interface (and optionally ContextProvider for cancellation
support); everything else here exists to make calling them safe:

  - Registry: maps the closed models.Provider enum to registered adapters.
  - Invoker: the single call path. Pacing limiter, circuit breaker, and
    bounded exponential-backoff retry around every request.
  - BreakerRegistry: one circuit breaker per (provider, model) pair.
    Repeated failures open the circuit and short-circuit further calls
    until a cool-down elapses.
  - LimiterRegistry: one pacing limiter per provider, so multi-chunk plans
    and top-up passes do not burst into vendor rate limits.
  - Model catalogs: static per-vendor model lists and default-model
    resolution for cloud providers. Local providers (Ollama, LM Studio)
    serve whatever the user has pulled, so they have no static catalog.

Every call records latency, error class, throttle, retry, and breaker
metrics tagged by provider and model.
*/
package provider
