package discord

import "github.com/chasetripleseven/attention/internal/ports"

// Noop is the reporter used when presence is disabled or unavailable.
type Noop struct{}

func (Noop) Report(string, string) error { return nil }
func (Noop) Clear() error                { return nil }
func (Noop) Close() error                { return nil }

var _ ports.PresenceReporter = Noop{}
