/*
 * Ember VM - an embryonic Java virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package frame

import (
	"github.com/embervm/ember/src/trace"
)

// errReturn is an internal sentinel: stepOnce uses it to signal "ireturn
// or return executed", which Run() treats as a normal terminating
// condition rather than a trap.
type errReturn struct{}

func (errReturn) Error() string { return "frame: method returned" }

// Run drives the step loop: while ip is in bounds, read the opcode at ip,
// dispatch, and let stepOnce advance ip (sequentially, or to a branch
// target). A trapped error is first offered to the frame's exception
// table; only if no handler claims it does it propagate to the caller.
func (f *Frame) Run() error {
	f.State = Running
	for f.IP < len(f.Code.Code) {
		op := f.Code.Code[f.IP]
		err := f.stepOnce(op)
		if err == nil {
			continue
		}
		if _, ok := err.(errReturn); ok {
			f.State = Returned
			return nil
		}
		if f.dispatchToHandler(err) {
			continue
		}
		return f.trap(err)
	}
	// Falling off the end of the code array without a return is itself a
	// malformed method; report it as an out-of-bounds trap rather than
	// silently succeeding.
	return f.trap(ErrIPOutOfBounds)
}

// dispatchToHandler consults the exception table for an entry whose
// [StartPc, EndPc) range covers the ip the trap occurred at. CatchType ==
// 0 means "catches anything"; this VM does not model a live exception-type
// hierarchy (class resolution into live Class objects is out of scope), so
// a non-zero CatchType is also treated as a match -- the structure exists
// and is wired, even though type-directed matching is not exercised.
func (f *Frame) dispatchToHandler(cause error) bool {
	ip := uint16(f.IP)
	for _, e := range f.Code.Exceptions {
		if ip >= e.StartPc && ip < e.EndPc {
			trace.Trace(trace.Kernel, "exception table redirecting to handler_pc")
			f.IP = int(e.HandlerPc)
			_ = f.push(NullValue())
			f.State = Running
			return true
		}
	}
	return false
}

// stepOnce executes the instruction at f.IP and leaves f.IP pointing at
// the next instruction (sequential opcodes advance by their width;
// branches set IP directly). Opcodes outside the documented subset log a
// warning and advance by one byte, per spec.md's stated current behavior.
func (f *Frame) stepOnce(op byte) error {
	switch {
	case op == opAconstNull:
		return f.advance(1, f.push(NullValue()))

	case op == opIconstM1:
		return f.advance(1, f.push(IntValue(-1)))

	case op >= opIconst0 && op <= opIconst5:
		return f.advance(1, f.push(IntValue(int32(op)-3)))

	case op == opIload:
		operand, ok := f.codeByte(f.IP + 1)
		if !ok {
			return ErrIPOutOfBounds
		}
		idx := int(operand)
		if idx >= len(f.Locals) {
			return ErrIPOutOfBounds
		}
		return f.advance(2, f.push(f.Locals[idx]))

	case op >= opIload0 && op <= opIload3:
		idx := int(op - opIload0)
		if idx >= len(f.Locals) {
			return ErrIPOutOfBounds
		}
		return f.advance(1, f.push(f.Locals[idx]))

	case op == opIstore:
		operand, ok := f.codeByte(f.IP + 1)
		if !ok {
			return ErrIPOutOfBounds
		}
		idx := int(operand)
		v, err := f.pop()
		if err != nil {
			return err
		}
		if idx >= len(f.Locals) {
			return ErrIPOutOfBounds
		}
		f.Locals[idx] = v
		return f.advance(2, nil)

	case op >= opIstore0 && op <= opIstore3:
		idx := int(op - opIstore0)
		if idx >= len(f.Locals) {
			return ErrIPOutOfBounds
		}
		v, err := f.pop()
		if err != nil {
			return err
		}
		f.Locals[idx] = v
		return f.advance(1, nil)

	case op == opIadd:
		return f.advance(1, f.binaryIntOp(func(a, b int32) int32 { return a + b }))
	case op == opIsub:
		return f.advance(1, f.binaryIntOp(func(a, b int32) int32 { return a - b }))
	case op == opImul:
		return f.advance(1, f.binaryIntOp(func(a, b int32) int32 { return a * b }))
	case op == opIdiv:
		return f.advance(1, f.binaryIntOpErr(func(a, b int32) (int32, error) {
			if b == 0 {
				return 0, ErrDivisionByZero
			}
			return a / b, nil // Go's integer division truncates toward zero, matching the JVM spec
		}))
	case op == opIrem:
		return f.advance(1, f.binaryIntOpErr(func(a, b int32) (int32, error) {
			if b == 0 {
				return 0, ErrDivisionByZero
			}
			return a % b, nil
		}))
	case op == opIneg:
		top, err := f.peekTop()
		if err != nil {
			return err
		}
		f.Stack[top] = IntValue(-f.Stack[top].Int())
		return f.advance(1, nil)
	case op == opIand:
		return f.advance(1, f.binaryIntOp(func(a, b int32) int32 { return a & b }))
	case op == opIor:
		return f.advance(1, f.binaryIntOp(func(a, b int32) int32 { return a | b }))

	case op == opIreturn:
		v, err := f.pop()
		if err != nil {
			return err
		}
		f.ReturnValue = v
		return errReturn{}

	case op == opReturn:
		return errReturn{}

	case op == opGoto:
		offset, ok := f.signedOffset()
		if !ok {
			return ErrIPOutOfBounds
		}
		f.IP += int(offset)
		return nil

	case op == opIfeq, op == opIfne, op == opIflt, op == opIfge, op == opIfgt, op == opIfle:
		v, err := f.pop()
		if err != nil {
			return err
		}
		return f.conditionalBranch(compareToZero(op, v.Int()))

	case op == opIfIcmpeq, op == opIfIcmpne, op == opIfIcmplt, op == opIfIcmpge, op == opIfIcmpgt, op == opIfIcmple:
		b, err := f.pop()
		if err != nil {
			return err
		}
		a, err := f.pop()
		if err != nil {
			return err
		}
		return f.conditionalBranch(compareIcmp(op, a.Int(), b.Int()))

	default:
		trace.Warn(trace.Kernel, "unrecognized opcode, treated as no-op")
		return f.advance(1, nil)
	}
}

// advance applies a sequential width to IP unless err is non-nil, in which
// case the width is irrelevant and err propagates untouched.
func (f *Frame) advance(width int, err error) error {
	if err != nil {
		return err
	}
	f.IP += width
	return nil
}

func (f *Frame) binaryIntOp(op func(a, b int32) int32) error {
	return f.binaryIntOpErr(func(a, b int32) (int32, error) { return op(a, b), nil })
}

// binaryIntOpErr implements spec.md's "b=pop; a=peek; a.int op= b.int"
// shape: the right operand is popped, the left operand is mutated in
// place at the new top of stack.
func (f *Frame) binaryIntOpErr(op func(a, b int32) (int32, error)) error {
	b, err := f.pop()
	if err != nil {
		return err
	}
	top, err := f.peekTop()
	if err != nil {
		return err
	}
	result, err := op(f.Stack[top].Int(), b.Int())
	if err != nil {
		return err
	}
	f.Stack[top] = IntValue(result)
	return nil
}

// codeByte returns the byte at the given absolute index into the method's
// code array, or false if that index falls outside it.
func (f *Frame) codeByte(at int) (byte, bool) {
	if at < 0 || at >= len(f.Code.Code) {
		return 0, false
	}
	return f.Code.Code[at], true
}

// signedOffset reads the 2-byte big-endian branch offset following the
// current opcode, relative to the opcode's own address, per the class-file
// bytecode format.
func (f *Frame) signedOffset() (int16, bool) {
	hi, ok := f.codeByte(f.IP + 1)
	if !ok {
		return 0, false
	}
	lo, ok := f.codeByte(f.IP + 2)
	if !ok {
		return 0, false
	}
	return int16(uint16(hi)<<8 | uint16(lo)), true
}

// conditionalBranch takes the 3-byte branch instruction's offset if taken
// is true, otherwise advances past the instruction's 2 operand bytes.
func (f *Frame) conditionalBranch(taken bool) error {
	if taken {
		offset, ok := f.signedOffset()
		if !ok {
			return ErrIPOutOfBounds
		}
		f.IP += int(offset)
		return nil
	}
	f.IP += 3
	return nil
}

func compareToZero(op byte, v int32) bool {
	switch op {
	case opIfeq:
		return v == 0
	case opIfne:
		return v != 0
	case opIflt:
		return v < 0
	case opIfge:
		return v >= 0
	case opIfgt:
		return v > 0
	case opIfle:
		return v <= 0
	}
	return false
}

func compareIcmp(op byte, a, b int32) bool {
	switch op {
	case opIfIcmpeq:
		return a == b
	case opIfIcmpne:
		return a != b
	case opIfIcmplt:
		return a < b
	case opIfIcmpge:
		return a >= b
	case opIfIcmpgt:
		return a > b
	case opIfIcmple:
		return a <= b
	}
	return false
}
