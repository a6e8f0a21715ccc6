package ports

import (
	"context"

	"github.com/aretw0/tesoro/pkg/domain"
)

// Transport reaches the logic engine.
type Transport interface {
	// Send executes cmd (a predicate call without the trailing full stop) and
	// returns the raw reply. Engine-reported conditions, including timeouts, are
	// part of the reply. An error means the engine could not be reached and
	// matches domain.ErrEngineUnavailable.
	Send(ctx context.Context, cmd string) (domain.RawReply, error)

	// Close releases the engine. It must be safe to call more than once.
	Close() error
}
