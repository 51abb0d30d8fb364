// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package catalog

import "github.com/samber/oops"

// Error codes for catalog failures.
const (
	CodeLoadFailed  = "CATALOG_LOAD_FAILED"
	CodeDuplicateID = "CATALOG_DUPLICATE_ID"
	CodeBadPattern  = "CATALOG_BAD_PATTERN"
)

// ErrDuplicateID reports an id the engine listed twice in one category.
func ErrDuplicateID(cat Category, id int32) error {
	return oops.Code(CodeDuplicateID).
		With("category", cat.String()).
		With("id", id).
		Errorf("duplicate %s id %d", cat, id)
}
