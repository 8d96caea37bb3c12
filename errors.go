package treetable

import "errors"

var (
	// ErrInvalidConfiguration is returned by the constructors for a load
	// factor outside (0, 1] or a negative capacity. The table cannot repair
	// its configuration; construct a new one with valid parameters.
	ErrInvalidConfiguration = errors.New("treetable: invalid configuration")

	// ErrConcurrentChange is reported by an iterator whose table underwent a
	// structural change (insert, remove, clear) after the iterator was
	// created. The iterator is dead; recovery is a fresh Iter call.
	ErrConcurrentChange = errors.New("treetable: structural change during iteration")
)
