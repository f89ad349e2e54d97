package eventhandler

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
)

// Tracer is a RoundEventHandler that marshals every received round event to
// an append-only file-based log.
//
// Note that we don't need any mutexes here because writing to an os.File is
// thread-safe (see https://github.com/rs/zerolog/blob/master/writer.go#L33)
type Tracer struct {
	LogFile *os.File
	Logger  zerolog.Logger
}

const eventTracerFilePerms fs.FileMode = 0644

// NewTracerToFile returns a Tracer that writes to the specified filename,
// or an error if the file can't be opened.
func NewTracerToFile(filename string) (*Tracer, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, eventTracerFilePerms)
	if err != nil {
		return nil, err
	}

	return &Tracer{
		LogFile: file,
		Logger:  zerolog.New(file).With().Timestamp().Logger(),
	}, nil
}

// HandleRoundEvent implements RoundEventHandler
func (t *Tracer) HandleRoundEvent(ctx context.Context, event RoundEvent) error {
	t.Logger.Log().
		Func(func(e *zerolog.Event) {
			eventJSON, err := json.Marshal(event)
			if err == nil {
				e.RawJSON("Event", eventJSON)
			} else {
				e.AnErr("MarshalError", err)
			}
		}).Send()
	return nil
}

func (t *Tracer) Shutdown() error {
	err := t.LogFile.Close()
	t.LogFile = nil
	t.Logger = zerolog.Nop()
	return err
}

var _ RoundEventHandler = (*Tracer)(nil)
