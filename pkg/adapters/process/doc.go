/*
Package process runs the logic engine as a persistent subprocess and talks to it
over its standard streams.

A Session owns exactly one engine process. Requests are serialized by a mutex,
written with the sentinel framing from package protocol and read back until the
sentinel or the time budget runs out. Timeouts are values, not errors: the
caller gets a RawReply with TimedOut set and decides what to do. Output that a
timed-out request produces later is discarded before the next request is
written, so it never leaks into another reply.

	sess, err := process.Start(ctx, process.Config{RulesFile: "reglas.pl"})
	if err != nil {
		return err
	}
	defer sess.Shutdown(context.Background())

	raw, err := sess.Send(ctx, "mover(templo)")
*/
package process
