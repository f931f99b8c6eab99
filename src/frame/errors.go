/*
 * Ember VM - an embryonic Java virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package frame

import "github.com/pkg/errors"

var (
	ErrMethodNotFound  = errors.New("frame: method not found")
	ErrNoCode          = errors.New("frame: method has no Code attribute")
	ErrStackOverflow   = errors.New("frame: operand stack overflow")
	ErrStackUnderflow  = errors.New("frame: operand stack underflow")
	ErrDivisionByZero  = errors.New("frame: division by zero")
	ErrIPOutOfBounds   = errors.New("frame: instruction pointer out of bounds")
)
