/*
Package oneshot provides a ports.Transport that starts a fresh engine process
for every command.

It trades the startup cost of each request for isolation: a hung or crashed
goal can never poison the next one, and no state survives between commands
other than what the rules file itself establishes. It is useful for scripted
queries and as a fallback when a persistent session is not wanted.

# Invocation

Each command runs as:

	<command> <args...> <rules> -g <framed goal> -t halt

The reply is read up to the completion sentinel exactly as a persistent
session would, so both transports classify identically.
*/
package oneshot
