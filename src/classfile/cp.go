/*
 * Ember VM - an embryonic Java virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"github.com/pkg/errors"

	"github.com/embervm/ember/src/bytesreader"
)

// Wire-format tag bytes, per the JVM class-file specification. These are
// distinct from ConstTag: the wire tag is what's actually read off the
// byte stream, ConstTag is this package's internal discriminant.
const (
	wireUtf8               = 1
	wireInteger             = 3
	wireFloat               = 4
	wireLong                = 5
	wireDouble              = 6
	wireClass               = 7
	wireString              = 8
	wireFieldref            = 9
	wireMethodref           = 10
	wireInterfaceMethodref  = 11
	wireNameAndType         = 12
	wireMethodHandle        = 15
	wireMethodType          = 16
	wireDynamic             = 17
	wireInvokeDynamic       = 18
	wireModule              = 19
	wirePackage             = 20
)

// parseConstantPool reads constant_pool_count and then count-1 entries,
// dispatching on each entry's tag byte per the payload table. A Long or
// Double entry consumes two logical indices: the second is filled with an
// Integer placeholder of value 0, per the data model's stated invariant, so
// 1-based indexing from the class file continues to work without an
// indirection table.
func parseConstantPool(r *bytesreader.Reader) (*ConstantPool, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, errors.Wrap(err, "reading constant_pool_count")
	}

	cp := &ConstantPool{}
	total := int(count) - 1
	if total < 0 {
		total = 0
	}
	cp.entries = make([]cpEntry, total)

	for i := 0; i < total; i++ {
		tag, err := r.ReadU1()
		if err != nil {
			return nil, errors.Wrapf(err, "reading tag for constant pool entry %d", i+1)
		}

		var readErr error
		u1 := func() uint8 {
			v, e := r.ReadU1()
			if e != nil && readErr == nil {
				readErr = e
			}
			return v
		}
		u2 := func() uint16 {
			v, e := r.ReadU2()
			if e != nil && readErr == nil {
				readErr = e
			}
			return v
		}

		switch tag {
		case wireUtf8:
			length, e := r.ReadU2()
			if e != nil {
				return nil, errors.Wrapf(e, "utf8 length at entry %d", i+1)
			}
			raw, e := r.ReadBytes(int(length))
			if e != nil {
				return nil, errors.Wrapf(e, "utf8 bytes at entry %d", i+1)
			}
			cp.entries[i] = cpEntry{tag: CtUtf8, slot: len(cp.utf8s)}
			cp.utf8s = append(cp.utf8s, append([]byte(nil), raw...))

		case wireInteger:
			v, e := r.ReadI4()
			if e != nil {
				return nil, errors.Wrapf(e, "integer constant at entry %d", i+1)
			}
			cp.entries[i] = cpEntry{tag: CtInteger, slot: len(cp.integers)}
			cp.integers = append(cp.integers, v)

		case wireFloat:
			v, e := r.ReadF4()
			if e != nil {
				return nil, errors.Wrapf(e, "float constant at entry %d", i+1)
			}
			cp.entries[i] = cpEntry{tag: CtFloat, slot: len(cp.floats)}
			cp.floats = append(cp.floats, v)

		case wireLong:
			v, e := r.ReadI8()
			if e != nil {
				return nil, errors.Wrapf(e, "long constant at entry %d", i+1)
			}
			cp.entries[i] = cpEntry{tag: CtLong, slot: len(cp.longs)}
			cp.longs = append(cp.longs, v)
			i++
			if i < total {
				cp.entries[i] = cpEntry{tag: CtInteger, slot: len(cp.integers)}
				cp.integers = append(cp.integers, 0)
			}

		case wireDouble:
			v, e := r.ReadF8()
			if e != nil {
				return nil, errors.Wrapf(e, "double constant at entry %d", i+1)
			}
			cp.entries[i] = cpEntry{tag: CtDouble, slot: len(cp.doubles)}
			cp.doubles = append(cp.doubles, v)
			i++
			if i < total {
				cp.entries[i] = cpEntry{tag: CtInteger, slot: len(cp.integers)}
				cp.integers = append(cp.integers, 0)
			}

		case wireClass:
			nameIdx := u2()
			if readErr != nil {
				return nil, errors.Wrapf(readErr, "class ref at entry %d", i+1)
			}
			cp.entries[i] = cpEntry{tag: CtClass, slot: len(cp.classRefs)}
			cp.classRefs = append(cp.classRefs, ClassRefEntry{NameIndex: nameIdx})

		case wireString:
			strIdx := u2()
			if readErr != nil {
				return nil, errors.Wrapf(readErr, "string ref at entry %d", i+1)
			}
			cp.entries[i] = cpEntry{tag: CtStringRef, slot: len(cp.stringRefs)}
			cp.stringRefs = append(cp.stringRefs, StringRefEntry{StringIndex: strIdx})

		case wireFieldref:
			classIdx := u2()
			ntIdx := u2()
			if readErr != nil {
				return nil, errors.Wrapf(readErr, "field ref at entry %d", i+1)
			}
			cp.entries[i] = cpEntry{tag: CtFieldRef, slot: len(cp.fieldRefs)}
			cp.fieldRefs = append(cp.fieldRefs, FieldRefEntry{ClassIndex: classIdx, NameAndTypeIndex: ntIdx})

		case wireMethodref:
			classIdx := u2()
			ntIdx := u2()
			if readErr != nil {
				return nil, errors.Wrapf(readErr, "method ref at entry %d", i+1)
			}
			cp.entries[i] = cpEntry{tag: CtMethodRef, slot: len(cp.methodRefs)}
			cp.methodRefs = append(cp.methodRefs, MethodRefEntry{ClassIndex: classIdx, NameAndTypeIndex: ntIdx})

		case wireInterfaceMethodref:
			classIdx := u2()
			ntIdx := u2()
			if readErr != nil {
				return nil, errors.Wrapf(readErr, "interface method ref at entry %d", i+1)
			}
			cp.entries[i] = cpEntry{tag: CtInterfaceMethodRef, slot: len(cp.interfaceRefs)}
			cp.interfaceRefs = append(cp.interfaceRefs, InterfaceMethodRefEntry{ClassIndex: classIdx, NameAndTypeIndex: ntIdx})

		case wireNameAndType:
			nameIdx := u2()
			descIdx := u2()
			if readErr != nil {
				return nil, errors.Wrapf(readErr, "name-and-type at entry %d", i+1)
			}
			cp.entries[i] = cpEntry{tag: CtNameAndType, slot: len(cp.nameAndTypes)}
			cp.nameAndTypes = append(cp.nameAndTypes, NameAndTypeEntry{NameIndex: nameIdx, DescIndex: descIdx})

		case wireMethodHandle:
			refKind := u1()
			refIdx := u2()
			if readErr != nil {
				return nil, errors.Wrapf(readErr, "method handle at entry %d", i+1)
			}
			cp.entries[i] = cpEntry{tag: CtMethodHandle, slot: len(cp.methodHandles)}
			cp.methodHandles = append(cp.methodHandles, MethodHandleEntry{RefKind: refKind, RefIndex: refIdx})

		case wireMethodType:
			descIdx := u2()
			if readErr != nil {
				return nil, errors.Wrapf(readErr, "method type at entry %d", i+1)
			}
			cp.entries[i] = cpEntry{tag: CtMethodType, slot: len(cp.methodTypes)}
			cp.methodTypes = append(cp.methodTypes, MethodTypeEntry{DescIndex: descIdx})

		case wireDynamic:
			bsIdx := u2()
			ntIdx := u2()
			if readErr != nil {
				return nil, errors.Wrapf(readErr, "dynamic constant at entry %d", i+1)
			}
			cp.entries[i] = cpEntry{tag: CtDynamic, slot: len(cp.dynamics)}
			cp.dynamics = append(cp.dynamics, DynamicEntry{BootstrapIndex: bsIdx, NameAndTypeIndex: ntIdx})

		case wireInvokeDynamic:
			bsIdx := u2()
			ntIdx := u2()
			if readErr != nil {
				return nil, errors.Wrapf(readErr, "invoke dynamic at entry %d", i+1)
			}
			cp.entries[i] = cpEntry{tag: CtInvokeDynamic, slot: len(cp.invokeDynamics)}
			cp.invokeDynamics = append(cp.invokeDynamics, DynamicEntry{BootstrapIndex: bsIdx, NameAndTypeIndex: ntIdx})

		case wireModule:
			nameIdx := u2()
			if readErr != nil {
				return nil, errors.Wrapf(readErr, "module at entry %d", i+1)
			}
			cp.entries[i] = cpEntry{tag: CtModule, slot: len(cp.modules)}
			cp.modules = append(cp.modules, ModuleRefEntry{NameIndex: nameIdx})

		case wirePackage:
			nameIdx := u2()
			if readErr != nil {
				return nil, errors.Wrapf(readErr, "package at entry %d", i+1)
			}
			cp.entries[i] = cpEntry{tag: CtPackage, slot: len(cp.packages)}
			cp.packages = append(cp.packages, ModuleRefEntry{NameIndex: nameIdx})

		default:
			return nil, cfe(ErrConstUnsupportedTag, "tag %d at entry %d", tag, i+1)
		}
	}

	return cp, nil
}

// ResolveString follows the resolution chain spec.md names: Utf8 returns an
// owned, decoded copy; StringRef recurses via StringIndex; Class and
// NameAndType recurse via NameIndex; any other tag is
// ErrConstStringNotFound. Recursion is bounded by pool length so a cyclic
// (malformed) pool fails instead of looping forever.
func (cp *ConstantPool) ResolveString(index int) (string, error) {
	return cp.resolveString(index, cp.Len()+1)
}

func (cp *ConstantPool) resolveString(index, budget int) (string, error) {
	if budget <= 0 {
		return "", errors.New("classfile: constant pool resolution cycle detected")
	}
	tag, ok := cp.TagAt(index)
	if !ok {
		return "", cfe(ErrConstIndexOutOfBounds, "index %d", index)
	}
	entry := cp.entries[index-1]

	switch tag {
	case CtUtf8:
		return decodeMUTF8(cp.utf8s[entry.slot])
	case CtStringRef:
		return cp.resolveString(int(cp.stringRefs[entry.slot].StringIndex), budget-1)
	case CtClass:
		return cp.resolveString(int(cp.classRefs[entry.slot].NameIndex), budget-1)
	case CtNameAndType:
		return cp.resolveString(int(cp.nameAndTypes[entry.slot].NameIndex), budget-1)
	default:
		return "", cfe(ErrConstStringNotFound, "tag %d at index %d", tag, index)
	}
}

// ResolveClassName resolves a Class constant at index to its owned name
// string. It's a thin, explicit alias over ResolveString for call sites
// that specifically expect a Class entry (this/super/interfaces), matching
// the teacher's GetClassNameFromCPclassref naming intent.
func (cp *ConstantPool) ResolveClassName(index int) (string, error) {
	tag, ok := cp.TagAt(index)
	if !ok {
		return "", cfe(ErrConstIndexOutOfBounds, "index %d", index)
	}
	if tag != CtClass {
		return "", cfe(ErrConstStringNotFound, "expected Class tag at index %d, got %d", index, tag)
	}
	return cp.ResolveString(index)
}

// NameAndTypeAt returns the raw name/descriptor indices of a NameAndType
// entry, for callers that need both halves rather than ResolveString's
// name-only view.
func (cp *ConstantPool) NameAndTypeAt(index int) (NameAndTypeEntry, error) {
	tag, ok := cp.TagAt(index)
	if !ok || tag != CtNameAndType {
		return NameAndTypeEntry{}, cfe(ErrConstIndexOutOfBounds, "expected NameAndType at index %d", index)
	}
	return cp.nameAndTypes[cp.entries[index-1].slot], nil
}

// IntegerAt, FloatAt, LongAt and DoubleAt fetch numeric literal constants,
// used by the Code attribute's ldc/ldc2_w-family opcodes (left for the
// interpreter to consume).
func (cp *ConstantPool) IntegerAt(index int) (int32, error) {
	tag, ok := cp.TagAt(index)
	if !ok || tag != CtInteger {
		return 0, cfe(ErrConstIndexOutOfBounds, "expected Integer at index %d", index)
	}
	return cp.integers[cp.entries[index-1].slot], nil
}

func (cp *ConstantPool) FloatAt(index int) (float32, error) {
	tag, ok := cp.TagAt(index)
	if !ok || tag != CtFloat {
		return 0, cfe(ErrConstIndexOutOfBounds, "expected Float at index %d", index)
	}
	return cp.floats[cp.entries[index-1].slot], nil
}

func (cp *ConstantPool) LongAt(index int) (int64, error) {
	tag, ok := cp.TagAt(index)
	if !ok || tag != CtLong {
		return 0, cfe(ErrConstIndexOutOfBounds, "expected Long at index %d", index)
	}
	return cp.longs[cp.entries[index-1].slot], nil
}

func (cp *ConstantPool) DoubleAt(index int) (float64, error) {
	tag, ok := cp.TagAt(index)
	if !ok || tag != CtDouble {
		return 0, cfe(ErrConstIndexOutOfBounds, "expected Double at index %d", index)
	}
	return cp.doubles[cp.entries[index-1].slot], nil
}
