/*
 * Ember VM - an embryonic Java virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package frame

import (
	"github.com/pkg/errors"

	"github.com/embervm/ember/src/arena"
	"github.com/embervm/ember/src/classfile"
	"github.com/embervm/ember/src/trace"
)

// State is the frame's Ready -> Running -> {Returned | Trapped} lifecycle.
type State uint8

const (
	Ready State = iota
	Running
	Returned
	Trapped
)

// Frame is a per-method activation record: a bounded operand stack and a
// bounded local-variable array, plus the method/class/code it's executing
// and the errors it trapped on that no exception-table handler caught.
type Frame struct {
	Method *classfile.Method
	Class  *classfile.Class
	Code   *classfile.CodeAttribute

	IP int

	Locals   []Value
	Stack    []Value
	StackTop int

	Self *arena.ObjectHandle

	State       State
	ReturnValue Value
	Errors      []error
}

// MakeFrame looks up methodName in class, finds its Code attribute,
// allocates locals/stack sized to the method's declared limits, and copies
// args into the low locals -- exactly the four numbered steps spec.md's
// makeFrame names.
func MakeFrame(class *classfile.Class, self *arena.ObjectHandle, args []Value, methodName string) (*Frame, error) {
	m, ok := class.FindMethod(methodName)
	if !ok {
		return nil, errors.Wrapf(ErrMethodNotFound, "%s", methodName)
	}
	code, ok := m.CodeAttr()
	if !ok {
		return nil, errors.Wrapf(ErrNoCode, "%s", methodName)
	}

	f := &Frame{
		Method: m,
		Class:  class,
		Code:   code,
		Locals: make([]Value, code.MaxLocals),
		Stack:  make([]Value, code.MaxStack),
		Self:   self,
		State:  Ready,
	}
	copy(f.Locals, args)
	return f, nil
}

func (f *Frame) push(v Value) error {
	if f.StackTop >= len(f.Stack) {
		return ErrStackOverflow
	}
	f.Stack[f.StackTop] = v
	f.StackTop++
	return nil
}

func (f *Frame) pop() (Value, error) {
	if f.StackTop <= 0 {
		return Value{}, ErrStackUnderflow
	}
	f.StackTop--
	return f.Stack[f.StackTop], nil
}

// peekTop returns the stack index of the current top-of-stack slot, for
// opcodes (iadd, isub, ...) that mutate the new top in place rather than
// popping and re-pushing.
func (f *Frame) peekTop() (int, error) {
	if f.StackTop <= 0 {
		return 0, ErrStackUnderflow
	}
	return f.StackTop - 1, nil
}

// trap records err, flips the frame to Trapped, and logs it through the
// Kernel component tag, per the error taxonomy's "[K] kernel/interpreter"
// diagnostic convention.
func (f *Frame) trap(err error) error {
	f.State = Trapped
	f.Errors = append(f.Errors, err)
	trace.Error(trace.Kernel, err.Error())
	return err
}
