package classfile

import (
	"encoding/binary"
	"math"
)

// classBuilder assembles class-file bytes by hand, the same "fixture built
// from raw byte literals" idiom the teacher's own format-check tests use.
type classBuilder struct {
	buf []byte
}

func newClassBuilder() *classBuilder { return &classBuilder{} }

func (b *classBuilder) u1(v uint8)  { b.buf = append(b.buf, v) }
func (b *classBuilder) u2(v uint16) { b.buf = append(b.buf, byte(v>>8), byte(v)) }
func (b *classBuilder) u4(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}
func (b *classBuilder) bytes(v []byte) { b.buf = append(b.buf, v...) }

func (b *classBuilder) utf8Entry(s string) {
	b.u1(wireUtf8)
	encoded := encodeMUTF8(s)
	b.u2(uint16(len(encoded)))
	b.bytes(encoded)
}

func (b *classBuilder) classEntry(nameIdx uint16) {
	b.u1(wireClass)
	b.u2(nameIdx)
}

func (b *classBuilder) longEntry(v int64) {
	b.u1(wireLong)
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	b.bytes(tmp[:])
}

func (b *classBuilder) integerEntry(v int32) {
	b.u1(wireInteger)
	b.u4(uint32(v))
}

func (b *classBuilder) floatEntry(v float32) {
	b.u1(wireFloat)
	b.u4(math.Float32bits(v))
}

func (b *classBuilder) doubleEntry(v float64) {
	b.u1(wireDouble)
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], math.Float64bits(v))
	b.bytes(tmp[:])
}

func (b *classBuilder) nameAndTypeEntry(nameIdx, descIdx uint16) {
	b.u1(wireNameAndType)
	b.u2(nameIdx)
	b.u2(descIdx)
}

// buildMinimalClass returns a complete, well-formed class-file buffer for a
// class named className with no super (superIndex == 0), no interfaces, no
// fields, one method (methodName) whose Code attribute is exactly code,
// and no class attributes.
func buildMinimalClass(className, methodName, methodDesc string, maxStack, maxLocals uint16, code []byte) []byte {
	b := newClassBuilder()
	b.u4(classMagic)
	b.u2(0) // minor
	b.u2(61) // major

	// constant pool: [1]=Utf8(className) [2]=Class->1 [3]=Utf8(methodName)
	// [4]=Utf8(methodDesc) [5]=Utf8("Code")
	b.u2(6) // constant_pool_count = count+1
	b.utf8Entry(className)
	b.classEntry(1)
	b.utf8Entry(methodName)
	b.utf8Entry(methodDesc)
	b.utf8Entry("Code")

	b.u2(0)      // access_flags
	b.u2(2)      // this_class -> Class entry at index 2
	b.u2(0)      // super_class == 0
	b.u2(0)      // interfaces_count

	b.u2(0) // fields_count

	b.u2(1) // methods_count
	b.u2(0)      // method access_flags
	b.u2(3)      // method name_index -> Utf8(methodName)
	b.u2(4)      // method descriptor_index -> Utf8(methodDesc)
	b.u2(1)      // method attributes_count
	b.u2(5)      // attribute_name_index -> Utf8("Code")

	// Code attribute body, built separately so we can prefix its length.
	code_ := newClassBuilder()
	code_.u2(maxStack)
	code_.u2(maxLocals)
	code_.u4(uint32(len(code)))
	code_.bytes(code)
	code_.u2(0) // exception_table_length
	code_.u2(0) // Code's own attributes_count

	b.u4(uint32(len(code_.buf)))
	b.bytes(code_.buf)

	b.u2(0) // class attributes_count

	return b.buf
}
