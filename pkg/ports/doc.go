/*
Package ports defines the driven ports (interfaces) of the tesoro client.

These interfaces decouple the game facade from how the logic engine is reached,
so the persistent subprocess session and the spawn-per-command runner are
interchangeable.

# Key Interfaces

  - Transport: sends one command to the engine and returns its raw reply.
  - EngineLocker: guarantees at most one live engine session per key.
*/
package ports
