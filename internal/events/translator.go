// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package events translates the engine's per-frame event queue into the
// flat notifications the agent receives.
package events

import (
	"log/slog"

	"github.com/holomush/bwbridge/internal/engine"
)

// Notification is one translated event: a kind, two integer arguments and
// optional text.
type Notification struct {
	Kind engine.EventKind `json:"kind"`
	Arg0 int32            `json:"arg0"`
	Arg1 int32            `json:"arg1"`
	Text *string          `json:"text,omitempty"`
}

// Translator maps engine events to notifications.
type Translator struct {
	logger *slog.Logger
}

// NewTranslator returns a translator that logs unrecognised kinds to logger.
func NewTranslator(logger *slog.Logger) *Translator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Translator{logger: logger}
}

// Translate maps one event.
func (t *Translator) Translate(ev engine.Event) Notification {
	n := Notification{Kind: ev.Kind()}
	switch e := ev.(type) {
	case engine.Signal:
	case engine.MatchEnd:
		if e.Winner {
			n.Arg0 = 1
		}
	case engine.TextEvent:
		text := e.Text
		n.Text = &text
	case engine.PlayerEvent:
		n.Arg0 = int32(e.Player)
	case engine.UnitEvent:
		n.Arg0 = int32(e.Unit)
	case engine.NukeDetect:
		if e.Known {
			n.Arg0, n.Arg1 = e.At.X, e.At.Y
		} else {
			n.Arg0, n.Arg1 = -1, -1
		}
	case engine.Unknown:
		t.logger.Warn("unrecognised engine event", "kind", int32(e.Code))
	}
	eventsTotal.WithLabelValues(kindLabel(n.Kind)).Inc()
	return n
}

// kindLabel folds every unrecognised kind into one metric label.
func kindLabel(k engine.EventKind) string {
	if !k.Known() {
		return unknownKind
	}
	return k.String()
}

// TranslateAll maps a frame's queue, preserving count and order.
func (t *Translator) TranslateAll(evs []engine.Event) []Notification {
	out := make([]Notification, len(evs))
	for i, ev := range evs {
		out[i] = t.Translate(ev)
	}
	return out
}
