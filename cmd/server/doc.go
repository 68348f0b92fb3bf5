// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

/*
Package main is the entry point for the Melodex server.

Melodex is a self-hosted sidecar for media library managers that turns
AI/LLM music suggestions into safe, deduplicated import lists. The host
manager calls the fetch endpoint on its import-list schedule; Melodex runs
the full hardening pipeline (sanitize, validate, dedup, safety-gate,
top-up) and returns artist/album items ready for import.

# Application Architecture

The server runs under a Suture v4 supervision tree:

	RootSupervisor ("melodex")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   ├── history-prune (expired day-buckets)
	│   ├── cache-sweep (expired recommendation lists)
	│   ├── profile-refresh (library profile rebuilds)
	│   └── store-gc (Badger value-log GC)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (Chi router)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, YAML file, and MELODEX_* overrides
 2. Logging: zerolog with JSON/console output modes
 3. Storage: BadgerDB for recommendation history and the review queue
 4. Engine: sanitizer, dedup, safety gate, planner, provider invoker, cache
 5. API: Chi router with request-ID, rate-limit, and CORS middleware
 6. Supervisor Tree: maintenance loops plus the HTTP server
 7. Signal handling: graceful shutdown on SIGINT/SIGTERM

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest priority
wins):
  - MELODEX_* environment variables
  - Config file (config.yaml, or CONFIG_PATH)
  - Built-in defaults

The provider back end is selected with MELODEX_PROVIDER: local providers
(ollama, lmstudio) read MELODEX_BASE_URL, cloud providers (openai,
anthropic, gemini, groq, deepseek, perplexity, openrouter) read
MELODEX_API_KEY. The stock binary wires every provider to a deterministic
static adapter; vendor adapters register through provider.Registry.

The host's library reaches Melodex as a JSON snapshot export
(MELODEX_LIBRARY_SNAPSHOT), re-read on every profile refresh.

# Example Usage

Local Ollama with a library export:

	export MELODEX_PROVIDER=ollama
	export MELODEX_BASE_URL=http://localhost:11434
	export MELODEX_MODEL=qwen3:8b
	export MELODEX_LIBRARY_SNAPSHOT=/data/library.json
	./melodex

Cloud provider with review queue and strict gating:

	export MELODEX_PROVIDER=openai
	export MELODEX_API_KEY=sk-...
	export MELODEX_MIN_CONFIDENCE=0.8
	export MELODEX_REQUIRE_MBIDS=true
	./melodex

# Port 8687

The default port 8687 sits one above the host manager's customary 8686, so
both fit the same port-forwarding block.
*/
package main
