/*
 * Ember VM - an embryonic Java virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"github.com/pkg/errors"

	"github.com/embervm/ember/src/bytesreader"
)

func isRecognizedAttrTag(tag AttrTag) bool {
	switch tag {
	case AttrConstantValue, AttrCode, AttrStackMapTable, AttrExceptions,
		AttrInnerClasses, AttrEnclosingMethod, AttrSynthetic, AttrSignature,
		AttrSourceFile, AttrSourceDebugExtension, AttrLineNumberTable,
		AttrLocalVariableTable, AttrRuntimeVisibleAnnos, AttrRuntimeInvisibleAnnos,
		AttrAnnotationDefault, AttrBootstrapMethods, AttrMethodParameters,
		AttrModule, AttrModulePackages, AttrModuleMainClass, AttrNestHost,
		AttrNestMembers, AttrRecord, AttrPermittedSubclasses:
		return true
	default:
		return false
	}
}

// parseAttributes reads an attribute_count followed by that many
// attribute_info structures, recursively for Code's own sub-attributes.
func parseAttributes(r *bytesreader.Reader, cp *ConstantPool) ([]Attribute, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, errors.Wrap(err, "reading attributes_count")
	}
	attrs := make([]Attribute, 0, count)
	for i := 0; i < int(count); i++ {
		a, err := parseAttribute(r, cp)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %d", i)
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

// parseAttribute reads one attribute_info: name index, a u4 length, and
// exactly that many body bytes, then dispatches on the resolved name.
// Unknown names are consumed-and-discarded (the raw body is kept, cursor
// alignment is preserved for whatever attribute follows) rather than
// aborting the parse.
func parseAttribute(r *bytesreader.Reader, cp *ConstantPool) (Attribute, error) {
	nameIdx, err := r.ReadU2()
	if err != nil {
		return Attribute{}, errors.Wrap(err, "reading attribute_name_index")
	}
	length, err := r.ReadU4()
	if err != nil {
		return Attribute{}, errors.Wrap(err, "reading attribute_length")
	}
	raw, err := r.ReadBytes(int(length))
	if err != nil {
		return Attribute{}, errors.Wrapf(err, "reading attribute body (%d bytes)", length)
	}

	name, err := cp.ResolveString(int(nameIdx))
	if err != nil {
		return Attribute{}, cfe(ErrAttrTagNotFound, "name index %d: %v", nameIdx, err)
	}

	attr := Attribute{Tag: AttrTag(name), NameIndex: nameIdx, Raw: raw}
	if !isRecognizedAttrTag(attr.Tag) {
		attr.Tag = AttrUnknown
		return attr, nil
	}

	sub := bytesreader.New(raw)
	switch attr.Tag {
	case AttrConstantValue:
		idx, err := sub.ReadU2()
		if err != nil {
			return Attribute{}, errors.Wrap(err, "ConstantValue")
		}
		attr.ConstantValueIndex = idx

	case AttrCode:
		code, err := parseCodeAttribute(sub, cp)
		if err != nil {
			return Attribute{}, errors.Wrap(err, "Code")
		}
		attr.Code = code

	case AttrExceptions:
		n, err := sub.ReadU2()
		if err != nil {
			return Attribute{}, errors.Wrap(err, "Exceptions count")
		}
		idxs := make([]uint16, n)
		for i := range idxs {
			v, err := sub.ReadU2()
			if err != nil {
				return Attribute{}, errors.Wrapf(err, "Exceptions entry %d", i)
			}
			idxs[i] = v
		}
		attr.ExceptionIndexes = idxs

	case AttrInnerClasses:
		n, err := sub.ReadU2()
		if err != nil {
			return Attribute{}, errors.Wrap(err, "InnerClasses count")
		}
		entries := make([]InnerClassEntry, 0, n)
		for i := 0; i < int(n); i++ {
			innerInfo, err := sub.ReadU2()
			if err != nil {
				return Attribute{}, errors.Wrapf(err, "InnerClasses entry %d", i)
			}
			outerInfo, err := sub.ReadU2()
			if err != nil {
				return Attribute{}, errors.Wrapf(err, "InnerClasses entry %d", i)
			}
			innerName, err := sub.ReadU2()
			if err != nil {
				return Attribute{}, errors.Wrapf(err, "InnerClasses entry %d", i)
			}
			flags, err := sub.ReadU2()
			if err != nil {
				return Attribute{}, errors.Wrapf(err, "InnerClasses entry %d", i)
			}
			if innerInfo != 0 && outerInfo != 0 && innerInfo == outerInfo {
				return Attribute{}, cfe(ErrInvalidInnerClass, "entry %d", i)
			}
			entries = append(entries, InnerClassEntry{
				InnerInfoIndex:  innerInfo,
				OuterInfoIndex:  outerInfo,
				InnerNameIndex:  innerName,
				InnerAccessFlag: AccessFlags(flags),
			})
		}
		attr.InnerClasses = entries

	case AttrEnclosingMethod:
		classIdx, err := sub.ReadU2()
		if err != nil {
			return Attribute{}, errors.Wrap(err, "EnclosingMethod")
		}
		methodIdx, err := sub.ReadU2()
		if err != nil {
			return Attribute{}, errors.Wrap(err, "EnclosingMethod")
		}
		attr.EnclosingClass = classIdx
		attr.EnclosingMethodRef = methodIdx

	case AttrSynthetic:
		attr.Synthetic = true

	case AttrSignature:
		idx, err := sub.ReadU2()
		if err != nil {
			return Attribute{}, errors.Wrap(err, "Signature")
		}
		attr.SignatureIndex = idx

	case AttrSourceFile:
		idx, err := sub.ReadU2()
		if err != nil {
			return Attribute{}, errors.Wrap(err, "SourceFile")
		}
		attr.SourceFileIndex = idx

	default:
		// StackMapTable, BootstrapMethods, annotation attributes and the
		// rest of the recognized-but-not-decoded set: Raw already holds
		// the body, nothing further to populate yet.
	}

	return attr, nil
}

// parseCodeAttribute reads a Code attribute's body: stack/locals limits,
// the raw bytecode, the exception table, and Code's own sub-attributes
// (LineNumberTable and friends), recursing through parseAttributes.
func parseCodeAttribute(r *bytesreader.Reader, cp *ConstantPool) (*CodeAttribute, error) {
	maxStack, err := r.ReadU2()
	if err != nil {
		return nil, errors.Wrap(err, "reading max_stack")
	}
	maxLocals, err := r.ReadU2()
	if err != nil {
		return nil, errors.Wrap(err, "reading max_locals")
	}
	codeLen, err := r.ReadU4()
	if err != nil {
		return nil, errors.Wrap(err, "reading code_length")
	}
	code, err := r.ReadBytes(int(codeLen))
	if err != nil {
		return nil, errors.Wrapf(err, "reading %d bytes of code", codeLen)
	}

	excCount, err := r.ReadU2()
	if err != nil {
		return nil, errors.Wrap(err, "reading exception_table_length")
	}
	exceptions := make([]ExceptionEntry, excCount)
	for i := range exceptions {
		startPc, err := r.ReadU2()
		if err != nil {
			return nil, errors.Wrapf(err, "exception table entry %d", i)
		}
		endPc, err := r.ReadU2()
		if err != nil {
			return nil, errors.Wrapf(err, "exception table entry %d", i)
		}
		handlerPc, err := r.ReadU2()
		if err != nil {
			return nil, errors.Wrapf(err, "exception table entry %d", i)
		}
		catchType, err := r.ReadU2()
		if err != nil {
			return nil, errors.Wrapf(err, "exception table entry %d", i)
		}
		exceptions[i] = ExceptionEntry{StartPc: startPc, EndPc: endPc, HandlerPc: handlerPc, CatchType: catchType}
	}

	subAttrs, err := parseAttributes(r, cp)
	if err != nil {
		return nil, errors.Wrap(err, "reading Code sub-attributes")
	}

	return &CodeAttribute{
		MaxStack:   maxStack,
		MaxLocals:  maxLocals,
		Code:       append([]byte(nil), code...),
		Exceptions: exceptions,
		Attributes: subAttrs,
	}, nil
}
