// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"github.com/samber/oops"

	"github.com/holomush/bwbridge/internal/catalog"
	"github.com/holomush/bwbridge/internal/engine"
)

// Error codes for rejected commands and queries.
const (
	CodeUnknownAction = "UNKNOWN_ACTION"
	CodeBadShape      = "BAD_SHAPE"
	CodeStaleHandle   = "STALE_HANDLE"
	CodeCatalogMiss   = "CATALOG_MISS"
	CodeUnknownQuery  = "UNKNOWN_QUERY"
	CodeMissingArg    = "MISSING_ARGUMENT"
)

// ErrUnknownAction creates an error for a verb outside the action table.
func ErrUnknownAction(a engine.Action) error {
	return oops.Code(CodeUnknownAction).
		With("action", a.String()).
		Errorf("unknown action %s", a)
}

// ErrBadShape creates an error for an argument shape the action does not take.
func ErrBadShape(a engine.Action, s engine.Shape) error {
	return oops.Code(CodeBadShape).
		With("action", a.String()).
		With("shape", s.String()).
		Errorf("%s does not take a %s argument", a, s)
}

// ErrStaleHandle creates an error for a handle that is not live this frame.
func ErrStaleHandle(role string, h engine.Handle) error {
	return oops.Code(CodeStaleHandle).
		With("role", role).
		With("handle", int32(h)).
		Errorf("%s handle %d is not live", role, h)
}

// ErrCatalogMiss creates an error for a type id missing from its category.
func ErrCatalogMiss(cat catalog.Category, id int32) error {
	return oops.Code(CodeCatalogMiss).
		With("category", cat.String()).
		With("id", id).
		Errorf("no %s entry with id %d", cat, id)
}

// ErrUnknownQuery creates an error for a predicate outside the query table.
func ErrUnknownQuery(k engine.QueryKind) error {
	return oops.Code(CodeUnknownQuery).
		With("query", k.String()).
		Errorf("unknown query %s", k)
}

// ErrMissingArg creates an error for a required argument left unset.
func ErrMissingArg(what, arg string) error {
	return oops.Code(CodeMissingArg).
		With("request", what).
		With("argument", arg).
		Errorf("%s requires %s", what, arg)
}
