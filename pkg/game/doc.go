/*
Package game implements the session-backed game facade.

A Game turns player intentions (move, take, use, reset and a handful of
read-only queries) into engine commands, sends them through a ports.Transport,
classifies the replies and keeps a small cached State in sync with the engine.

# Key Concepts

  - Outcome: every call returns a classified domain.Outcome. Engine-side
    problems, including an unreachable engine, are outcomes and not errors.
  - Cached State: only successful mutating verbs change it. Warnings, errors,
    timeouts and failures leave it untouched.
  - Subscribers: registered callbacks receive a copy of the new State after
    each mutation, synchronously and before the triggering call returns.
  - Vocabulary: the predicate names used for each verb and query. The defaults
    match the Spanish rules shipped with the adventure.
*/
package game
