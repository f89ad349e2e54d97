package eventhandler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ChainedRoundEventHandler fans a round event out to multiple handlers.
// All handlers are called, unless one of them returns an error.
type ChainedRoundEventHandler struct {
	handlers []RoundEventHandler
}

func NewChainedRoundEventHandler(handlers ...RoundEventHandler) *ChainedRoundEventHandler {
	return &ChainedRoundEventHandler{handlers: handlers}
}

func (c *ChainedRoundEventHandler) AddHandlers(handlers ...RoundEventHandler) {
	c.handlers = append(c.handlers, handlers...)
}

func (c *ChainedRoundEventHandler) HandleRoundEvent(ctx context.Context, event RoundEvent) (err error) {
	startTime := time.Now()
	defer func() {
		logMsg := log.Ctx(ctx).Trace().
			Dur("HandleDuration", time.Since(startTime))
		if err != nil {
			logMsg = logMsg.AnErr("HandlerError", err)
		}
		logMsg.Msg("Handled round event")
	}()

	if len(c.handlers) == 0 {
		return errors.New("no round event handlers registered")
	}

	for _, handler := range c.handlers {
		if err = handler.HandleRoundEvent(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

var _ RoundEventHandler = (*ChainedRoundEventHandler)(nil)
