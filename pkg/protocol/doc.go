/*
Package protocol defines the line framing used to talk to an interactive
logic engine over its standard streams.

Every command is wrapped so the engine always prints a completion sentinel,
whether the command succeeds, fails or raises. The reader side accumulates
output lines until the sentinel shows up, which gives bounded reads without a
length-prefixed protocol.

	framed := protocol.Frame("mover(templo)")
	// ( catch(call((mover(templo))), _E, (write('error: '), print(_E), nl)) ; true ), write('__END__'), nl.
*/
package protocol
