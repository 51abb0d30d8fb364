// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package wire implements the length-prefixed JSON envelope framing shared by
// the engine link and the agent socket transport. Each frame is a 4-byte
// little-endian payload length followed by a JSON envelope.
package wire

import (
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/samber/oops"
)

// MaxFrame is the default upper bound on a frame payload. Full unit dumps on
// large maps stay well below it.
const MaxFrame = 8 << 20

const prefixLen = 4

// Error codes for framing failures.
const (
	CodeFrameTooLarge = "FRAME_TOO_LARGE"
	CodeEmptyFrame    = "FRAME_EMPTY"
	CodeBadEnvelope   = "FRAME_BAD_ENVELOPE"
)

// Envelope is one framed message. Data is decoded lazily by the handler that
// owns Type.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals data into an envelope of the given type. A nil data
// yields an envelope without payload.
func NewEnvelope(msgType string, data any) (Envelope, error) {
	if data == nil {
		return Envelope{Type: msgType}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, oops.Code(CodeBadEnvelope).With("type", msgType).Wrapf(err, "marshal data")
	}
	return Envelope{Type: msgType, Data: raw}, nil
}

// Decode unmarshals the envelope payload into v.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return oops.Code(CodeBadEnvelope).With("type", e.Type).Wrapf(err, "decode payload")
	}
	return nil
}

// ReadEnvelope reads one frame. Frames larger than max are rejected before
// any payload is read; maxLen <= 0 selects MaxFrame.
func ReadEnvelope(r io.Reader, maxLen int) (Envelope, error) {
	if maxLen <= 0 {
		maxLen = MaxFrame
	}
	var prefix [prefixLen]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return Envelope{}, err
	}
	n := binary.LittleEndian.Uint32(prefix[:])
	if n == 0 {
		return Envelope{}, oops.Code(CodeEmptyFrame).Errorf("empty frame")
	}
	if uint64(n) > uint64(maxLen) {
		return Envelope{}, ErrFrameTooLarge(int(n), maxLen)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Envelope{}, oops.With("length", n).Wrapf(err, "read payload")
	}

	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, oops.Code(CodeBadEnvelope).Wrapf(err, "unmarshal envelope")
	}
	return env, nil
}

// WriteEnvelope writes env as a single frame. Prefix and payload go out in
// one Write call.
func WriteEnvelope(w io.Writer, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return oops.Code(CodeBadEnvelope).With("type", env.Type).Wrapf(err, "marshal envelope")
	}
	if len(payload) > MaxFrame {
		return ErrFrameTooLarge(len(payload), MaxFrame)
	}

	buf := make([]byte, prefixLen+len(payload))
	binary.LittleEndian.PutUint32(buf, uint32(len(payload))) //nolint:gosec // bounded by MaxFrame
	copy(buf[prefixLen:], payload)
	if _, err := w.Write(buf); err != nil {
		return oops.With("type", env.Type).Wrapf(err, "write frame")
	}
	return nil
}

// Send marshals data and writes it as one frame.
func Send(w io.Writer, msgType string, data any) error {
	env, err := NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	return WriteEnvelope(w, env)
}

// ErrFrameTooLarge reports a frame exceeding the configured limit.
func ErrFrameTooLarge(size, limit int) error {
	return oops.Code(CodeFrameTooLarge).
		With("size", size).
		With("limit", limit).
		Errorf("frame of %d bytes exceeds limit %d", size, limit)
}
