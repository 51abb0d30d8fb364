// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package bridge

// KeyCodes is the number of key codes scanned per tick.
const KeyCodes = 256

type keyReader interface {
	KeyState(code int) bool
}

// keyTracker remembers which keys were down on the previous tick.
type keyTracker struct {
	down [KeyCodes]bool
}

// scan appends to dst every key that went from up to down since the last
// scan, in ascending code order.
func (k *keyTracker) scan(dst []int, r keyReader) []int {
	for code := range KeyCodes {
		now := r.KeyState(code)
		if now && !k.down[code] {
			dst = append(dst, code)
		}
		k.down[code] = now
	}
	return dst
}
