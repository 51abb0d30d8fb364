// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/bwbridge/pkg/errutil"
)

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	return rec
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("engine gone"), ""},
		{"uncoded oops", oops.Errorf("engine gone"), ""},
		{"coded", oops.Code("LINK_DOWN").Errorf("engine gone"), "LINK_DOWN"},
		{"wrapped keeps inner code", oops.Wrapf(oops.Code("DIAL_FAILED").Errorf("refused"), "connect"), "DIAL_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errutil.Code(tt.err))
		})
	}
}

func TestLogError_ExpandsCodeAndContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("STALE_HANDLE").
		With("unit", 42).
		Errorf("unit no longer exists")

	errutil.LogError(logger, "command rejected", err)

	rec := decodeRecord(t, &buf)
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "command rejected", rec["msg"])
	assert.Equal(t, "STALE_HANDLE", rec["code"])
	assert.Equal(t, map[string]any{"unit": float64(42)}, rec["context"])
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "engine update failed", errors.New("connection reset"))

	rec := decodeRecord(t, &buf)
	assert.Equal(t, "ERROR", rec["level"])
	assert.Contains(t, rec["error"], "connection reset")
	assert.NotContains(t, rec, "code")
}

func TestLogErrorContext_UncodedOopsErrorOmitsCode(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.With("map_hash", "0ddba11").Errorf("cache unreadable")

	errutil.LogErrorContext(context.Background(), logger, "terrain cache failed", err)

	rec := decodeRecord(t, &buf)
	assert.Equal(t, "terrain cache failed", rec["msg"])
	assert.NotContains(t, rec, "code")
	assert.Equal(t, map[string]any{"map_hash": "0ddba11"}, rec["context"])
}

func TestAttrs_PlainErrorKeepsValue(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, []any{"error", err}, errutil.Attrs(err))
}
