/*
Package observability provides tools for monitoring the engine conversation.

Everything here is driven by domain.LifecycleHooks, so any transport that fires
hooks (the persistent session and the one-shot runner both do) can be observed
without changes.

# Key Components

  - Metrics: prometheus counters, a latency histogram and an in-flight gauge
    labelled by predicate and outcome status.
  - Journal: a bounded, in-memory record of the most recent requests, served
    by the CLI for quick inspection.
*/
package observability
