package sway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

// swaycmd runs swaymsg with the given arguments and returns its stdout.
func swaycmd(ctx context.Context, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "swaymsg", args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	l := log.WithFields(log.Fields{
		"args":   args,
		"stdout": string(out),
	})
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		l.WithError(err).Debug("swaymsg failed")
		return out, fmt.Errorf("failed running swaymsg: %w", err)
	}
	l.Trace("ran swaymsg")
	return out, nil
}

// configure runs `swaymsg output <name> <args...>`.
func (s *Sway) configure(ctx context.Context, name string, args ...string) error {
	_, err := s.run(ctx, append([]string{"output", name}, args...)...)
	return err
}
