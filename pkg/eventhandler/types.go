package eventhandler

import "context"

// RoundEvent is the flat field-name -> value record emitted once per
// validation round, successful or not.
type RoundEvent map[string]interface{}

// RoundEventHandler receives the record for every round.
type RoundEventHandler interface {
	HandleRoundEvent(ctx context.Context, event RoundEvent) error
}

// RoundEventHandlerFunc adapts a function to the RoundEventHandler
// interface.
type RoundEventHandlerFunc func(ctx context.Context, event RoundEvent) error

func (f RoundEventHandlerFunc) HandleRoundEvent(ctx context.Context, event RoundEvent) error {
	return f(ctx, event)
}
