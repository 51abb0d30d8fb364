// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"context"
	"unicode/utf8"

	"github.com/samber/oops"

	"github.com/holomush/bwbridge/internal/engine"
)

// CodeBadRequest marks a drawing or setting the engine does not define.
const CodeBadRequest = "BAD_REQUEST"

// MaxTextLen bounds chat and overlay text, in bytes.
const MaxTextLen = 255

// clip cuts s to at most MaxTextLen bytes on a character boundary.
func clip(s string) string {
	if len(s) <= MaxTextLen {
		return s
	}
	cut := MaxTextLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Draw passes an overlay primitive through to the engine.
func (d *Dispatcher) Draw(ctx context.Context, dr engine.Drawing) error {
	if dr.Kind < engine.DrawText || dr.Kind > engine.DrawCircle {
		return oops.Code(CodeBadRequest).With("kind", int(dr.Kind)).Errorf("unknown drawing kind")
	}
	dr.Text = clip(dr.Text)
	d.actuator.Draw(dr)
	return nil
}

// SendText sends a chat line in the match.
func (d *Dispatcher) SendText(ctx context.Context, text string) error {
	if text == "" {
		return ErrMissingArg("send_text", "text")
	}
	text = clip(text)
	d.actuator.SendText(text)
	d.logger.DebugContext(ctx, "text sent", "length", len(text))
	return nil
}

// SetOption changes a game setting. Boolean settings take 0 or 1.
func (d *Dispatcher) SetOption(ctx context.Context, opt engine.Option, value int32) error {
	switch opt {
	case engine.OptionUserInput, engine.OptionPerfectInformation:
		if value != 0 && value != 1 {
			return oops.Code(CodeBadRequest).With("option", int(opt)).With("value", value).
				Errorf("boolean option takes 0 or 1")
		}
	case engine.OptionLocalSpeed, engine.OptionFrameSkip, engine.OptionCommandOptimization:
		if value < 0 {
			return oops.Code(CodeBadRequest).With("option", int(opt)).With("value", value).
				Errorf("option value must not be negative")
		}
	default:
		return oops.Code(CodeBadRequest).With("option", int(opt)).Errorf("unknown option")
	}
	d.actuator.SetOption(opt, value)
	d.logger.InfoContext(ctx, "game option set", "option", int(opt), "value", value)
	return nil
}

// LeaveGame asks the engine to leave the current match.
func (d *Dispatcher) LeaveGame(ctx context.Context) {
	d.logger.InfoContext(ctx, "leaving match")
	d.actuator.LeaveGame()
}
