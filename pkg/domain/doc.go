/*
Package domain contains the core types shared by the tesoro client.

It models the conversation with the logic engine as values: a RawReply is what
the engine printed for one command, an Outcome is its classification, and State
is the client-side mirror of what the engine last reported. The package is kept
free of I/O so every adapter (subprocess session, one-shot runner, MCP) speaks
the same vocabulary.

# Key Entities

  - RawReply: text read between a command write and its completion sentinel.
  - Outcome: tagged result (ok, warning, error, timeout, no reply, unavailable).
  - State: cached location, inventory and visited places.
  - LifecycleHooks: observer callbacks fired around every engine request.
*/
package domain
