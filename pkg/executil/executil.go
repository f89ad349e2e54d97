// Package executil runs external toolchain commands with scoped resource
// handling, returning a structured outcome whether the command succeeds or
// fails.
package executil

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// CommandOutcome captures everything the caller needs to diagnose one
// command invocation.
type CommandOutcome struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
	Elapsed  time.Duration
}

// Run executes a single shell-quoted command line and waits for it to
// finish. Process resources are always released. A non-zero exit returns
// both the outcome and an error.
func Run(ctx context.Context, command string) (CommandOutcome, error) {
	outcome := CommandOutcome{Command: command, ExitCode: -1}

	words, err := shellquote.Split(command)
	if err != nil {
		return outcome, errors.Wrapf(err, "splitting command %q", command)
	}
	if len(words) == 0 {
		return outcome, errors.New("empty command")
	}

	log.Info().Str("Command", command).Msg("Running command")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, words[0], words[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	outcome.Elapsed = time.Since(start)
	outcome.Stdout = stdout.String()
	outcome.Stderr = stderr.String()

	if cmd.ProcessState != nil {
		outcome.ExitCode = cmd.ProcessState.ExitCode()
	}
	if runErr != nil {
		log.Error().
			Str("Command", command).
			Int("ExitCode", outcome.ExitCode).
			Str("Stderr", outcome.Stderr).
			Msg("Command failed")
		return outcome, errors.Wrapf(runErr, "running command %q", command)
	}
	return outcome, nil
}

// RunAll executes the commands in order and stops at the first failure,
// returning the outcomes gathered so far together with the failure.
func RunAll(ctx context.Context, commands []string) ([]CommandOutcome, error) {
	outcomes := make([]CommandOutcome, 0, len(commands))
	for _, command := range commands {
		outcome, err := Run(ctx, command)
		outcomes = append(outcomes, outcome)
		if err != nil {
			return outcomes, err
		}
	}
	return outcomes, nil
}
