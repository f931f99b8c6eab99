/*
 * Ember VM - an embryonic Java virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package frame materializes a Frame from a parsed method's Code attribute
// and executes the documented opcode subset over typed locals and an
// operand stack. Dispatch shape (a pc-indexed switch with push/pop
// helpers) follows the teacher's own draft interpreter; the typed-slot
// Value representation follows spec.md's data model directly, since no
// repo in the pack models a JVM operand stack.
package frame

import "github.com/embervm/ember/src/arena"

// Kind discriminates a runtime Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindByte
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindBoolean
	KindRef
)

// Value is the tagged variant spec.md names: byte/short/int/long/float/
// double/boolean/ref. Integral kinds share the i field; float/double share
// f; ref holds an arena handle (or nil for a null reference).
type Value struct {
	Kind Kind
	i    int64
	f    float64
	ref  *arena.ObjectHandle
}

func ByteValue(v int8) Value    { return Value{Kind: KindByte, i: int64(v)} }
func ShortValue(v int16) Value  { return Value{Kind: KindShort, i: int64(v)} }
func IntValue(v int32) Value    { return Value{Kind: KindInt, i: int64(v)} }
func LongValue(v int64) Value   { return Value{Kind: KindLong, i: v} }
func FloatValue(v float32) Value { return Value{Kind: KindFloat, f: float64(v)} }
func DoubleValue(v float64) Value { return Value{Kind: KindDouble, f: v} }
func BoolValue(v bool) Value {
	if v {
		return Value{Kind: KindBoolean, i: 1}
	}
	return Value{Kind: KindBoolean, i: 0}
}
func RefValue(h *arena.ObjectHandle) Value { return Value{Kind: KindRef, ref: h} }
func NullValue() Value                     { return Value{Kind: KindRef, ref: nil} }

func (v Value) Int() int32      { return int32(v.i) }
func (v Value) Long() int64     { return v.i }
func (v Value) Short() int16    { return int16(v.i) }
func (v Value) Byte() int8      { return int8(v.i) }
func (v Value) Bool() bool      { return v.i != 0 }
func (v Value) Float() float32  { return float32(v.f) }
func (v Value) Double() float64 { return v.f }
func (v Value) Ref() *arena.ObjectHandle { return v.ref }
func (v Value) IsNull() bool    { return v.Kind == KindRef && v.ref == nil }
