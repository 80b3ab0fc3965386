package design

import "errors"

var (
	// ErrOccupiedSlot is returned when a lattice cell or a base slot is taken.
	ErrOccupiedSlot = errors.New("design: slot occupied")
	// ErrIncompatibleEnds is returned when two strand ends cannot be joined.
	ErrIncompatibleEnds = errors.New("design: incompatible strand ends")
	// ErrInvalidReference is returned for handles to missing or removed entities.
	ErrInvalidReference = errors.New("design: invalid reference")
	// ErrSerialization is returned when a snapshot cannot be turned into a design.
	ErrSerialization = errors.New("design: serialization error")
	// ErrOutOfRange is returned for positions outside a strand or sequence bounds.
	ErrOutOfRange = errors.New("design: position out of range")
)
