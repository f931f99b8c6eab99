/*
 * Ember VM - an embryonic Java virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classfile turns a JVM class-file byte slice into a structured
// Class: a fully resolved constant pool, access flags, this/super,
// interfaces, fields, methods and attributes (notably Code). The constant
// pool and access-flag layouts follow the draft parser kept alongside the
// teacher package; the "tag plus index into a parallel typed slice"
// representation of a constant-pool entry, rather than an interface{} sum
// type, follows the teacher's own CPool/CpIndex design.
package classfile

// ConstTag discriminates a constant pool entry. Its values are this
// package's own numbering and do not equal the class-file format's tag
// bytes; cp.go's wire* constants and tag dispatch map one to the other.
type ConstTag uint8

const (
	ctInvalid ConstTag = iota
	CtClass
	CtFieldRef
	CtMethodRef
	CtInterfaceMethodRef
	CtStringRef
	CtInteger
	CtFloat
	CtLong
	CtDouble
	CtNameAndType
	CtUtf8
	CtMethodHandle
	CtMethodType
	CtDynamic
	CtInvokeDynamic
	CtModule
	CtPackage
)

// cpEntry is one slot of the constant pool's 1-indexed logical table: a tag
// plus the index into the parallel slice that actually holds the payload.
type cpEntry struct {
	tag  ConstTag
	slot int
}

// ClassRefEntry, FieldRefEntry, etc. are the tag-specific payloads named in
// the constant-pool payload table. Index fields are left as the raw 1-based
// indices read off the wire; resolution into strings happens in cp.go.
type ClassRefEntry struct{ NameIndex uint16 }

type FieldRefEntry struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

type MethodRefEntry struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

type InterfaceMethodRefEntry struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

type StringRefEntry struct{ StringIndex uint16 }

type NameAndTypeEntry struct {
	NameIndex uint16
	DescIndex uint16
}

type MethodHandleEntry struct {
	RefKind  uint8
	RefIndex uint16
}

type MethodTypeEntry struct{ DescIndex uint16 }

type DynamicEntry struct {
	BootstrapIndex   uint16
	NameAndTypeIndex uint16
}

type ModuleRefEntry struct{ NameIndex uint16 }

// ConstantPool holds the logical cpIndex table plus one parallel slice per
// tag, mirroring the teacher's CPool shape (CpIndex []cpEntry alongside
// ClassRefs/FieldRefs/Doubles/...). Index 0 is unused; valid entries run
// [1, len(entries)].
type ConstantPool struct {
	entries []cpEntry

	classRefs      []ClassRefEntry
	fieldRefs      []FieldRefEntry
	methodRefs     []MethodRefEntry
	interfaceRefs  []InterfaceMethodRefEntry
	stringRefs     []StringRefEntry
	integers       []int32
	floats         []float32
	longs          []int64
	doubles        []float64
	nameAndTypes   []NameAndTypeEntry
	utf8s          [][]byte
	methodHandles  []MethodHandleEntry
	methodTypes    []MethodTypeEntry
	dynamics       []DynamicEntry
	invokeDynamics []DynamicEntry
	modules        []ModuleRefEntry
	packages       []ModuleRefEntry
}

// Len returns the number of logical entries (count-1 from the wire), i.e.
// the highest valid 1-based index.
func (cp *ConstantPool) Len() int { return len(cp.entries) }

// TagAt returns the tag of the 1-based index i, or false if out of range.
func (cp *ConstantPool) TagAt(i int) (ConstTag, bool) {
	if i < 1 || i > len(cp.entries) {
		return ctInvalid, false
	}
	return cp.entries[i-1].tag, true
}

// AccessFlags decodes the class/field/method access_flags bitmask. Bit
// assignments are the JVM specification's, carried over from the draft
// parser's parseAccessFlags table since spec.md names these flags without
// enumerating the bits.
type AccessFlags uint16

const (
	AccPublic     AccessFlags = 0x0001
	AccPrivate    AccessFlags = 0x0002
	AccProtected  AccessFlags = 0x0004
	AccStatic     AccessFlags = 0x0008
	AccFinal      AccessFlags = 0x0010
	AccSuper      AccessFlags = 0x0020
	AccSynchronized AccessFlags = 0x0020
	AccVolatile   AccessFlags = 0x0040
	AccBridge     AccessFlags = 0x0040
	AccTransient  AccessFlags = 0x0080
	AccVarargs    AccessFlags = 0x0080
	AccNative     AccessFlags = 0x0100
	AccInterface  AccessFlags = 0x0200
	AccAbstract   AccessFlags = 0x0400
	AccStrict     AccessFlags = 0x0800
	AccSynthetic  AccessFlags = 0x1000
	AccAnnotation AccessFlags = 0x2000
	AccEnum       AccessFlags = 0x4000
	AccModule     AccessFlags = 0x8000
)

func (f AccessFlags) Has(bit AccessFlags) bool { return f&bit != 0 }
func (f AccessFlags) IsPublic() bool           { return f.Has(AccPublic) }
func (f AccessFlags) IsFinal() bool            { return f.Has(AccFinal) }
func (f AccessFlags) IsSuper() bool            { return f.Has(AccSuper) }
func (f AccessFlags) IsInterface() bool        { return f.Has(AccInterface) }
func (f AccessFlags) IsAbstract() bool         { return f.Has(AccAbstract) }
func (f AccessFlags) IsSynthetic() bool        { return f.Has(AccSynthetic) }
func (f AccessFlags) IsAnnotation() bool       { return f.Has(AccAnnotation) }
func (f AccessFlags) IsEnum() bool             { return f.Has(AccEnum) }
func (f AccessFlags) IsModule() bool           { return f.Has(AccModule) }

// AttrTag names a recognized attribute by its class-file name. Unknown
// attribute names are kept as AttrUnknown with their raw body preserved.
type AttrTag string

const (
	AttrUnknown               AttrTag = ""
	AttrConstantValue         AttrTag = "ConstantValue"
	AttrCode                  AttrTag = "Code"
	AttrStackMapTable         AttrTag = "StackMapTable"
	AttrExceptions            AttrTag = "Exceptions"
	AttrInnerClasses          AttrTag = "InnerClasses"
	AttrEnclosingMethod       AttrTag = "EnclosingMethod"
	AttrSynthetic             AttrTag = "Synthetic"
	AttrSignature             AttrTag = "Signature"
	AttrSourceFile            AttrTag = "SourceFile"
	AttrSourceDebugExtension  AttrTag = "SourceDebugExtension"
	AttrLineNumberTable       AttrTag = "LineNumberTable"
	AttrLocalVariableTable    AttrTag = "LocalVariableTable"
	AttrRuntimeVisibleAnnos   AttrTag = "RuntimeVisibleAnnotations"
	AttrRuntimeInvisibleAnnos AttrTag = "RuntimeInvisibleAnnotations"
	AttrAnnotationDefault     AttrTag = "AnnotationDefault"
	AttrBootstrapMethods      AttrTag = "BootstrapMethods"
	AttrMethodParameters      AttrTag = "MethodParameters"
	AttrModule                AttrTag = "Module"
	AttrModulePackages        AttrTag = "ModulePackages"
	AttrModuleMainClass       AttrTag = "ModuleMainClass"
	AttrNestHost              AttrTag = "NestHost"
	AttrNestMembers           AttrTag = "NestMembers"
	AttrRecord                AttrTag = "Record"
	AttrPermittedSubclasses   AttrTag = "PermittedSubclasses"
)

// ExceptionEntry is one row of a Code attribute's exception table.
// CatchType == 0 means "catches anything" (a finally block).
type ExceptionEntry struct {
	StartPc   uint16
	EndPc     uint16
	HandlerPc uint16
	CatchType uint16
}

// CodeAttribute is the structured payload of a Code attribute.
type CodeAttribute struct {
	MaxStack   uint16
	MaxLocals  uint16
	Code       []byte
	Exceptions []ExceptionEntry
	Attributes []Attribute
}

// InnerClassEntry is one row of an InnerClasses attribute.
type InnerClassEntry struct {
	InnerInfoIndex  uint16
	OuterInfoIndex  uint16
	InnerNameIndex  uint16
	InnerAccessFlag AccessFlags
}

// Attribute is a tagged variant keyed by Tag. Recognized tags populate the
// matching field below; Raw always holds the untouched payload bytes so
// round-tripping or re-dumping an attribute never loses information, and so
// that unrecognized attributes are skipped without disturbing cursor
// alignment for sibling attributes.
type Attribute struct {
	Tag       AttrTag
	NameIndex uint16
	Raw       []byte

	Code *CodeAttribute

	ConstantValueIndex uint16
	ExceptionIndexes   []uint16
	InnerClasses       []InnerClassEntry
	EnclosingClass     uint16
	EnclosingMethodRef uint16
	Synthetic          bool
	SignatureIndex     uint16
	SourceFileIndex    uint16
}

// Member is the shape shared by Field and Method: access flags, a
// name/descriptor pair already resolved to strings, and an attribute list
// with find(tag) semantics.
type Member struct {
	Flags AccessFlags
	Name  string
	Desc  string

	Attributes []Attribute
}

// Find returns the first attribute with the given tag, if any.
func (m *Member) Find(tag AttrTag) (*Attribute, bool) {
	for i := range m.Attributes {
		if m.Attributes[i].Tag == tag {
			return &m.Attributes[i], true
		}
	}
	return nil, false
}

// Field is a class-file field_info, fully resolved.
type Field struct{ Member }

// Method is a class-file method_info, fully resolved.
type Method struct{ Member }

// CodeAttr is a convenience accessor for the method's Code attribute, used
// constantly by the interpreter when materializing a Frame.
func (m *Method) CodeAttr() (*CodeAttribute, bool) {
	a, ok := m.Find(AttrCode)
	if !ok || a.Code == nil {
		return nil, false
	}
	return a.Code, true
}

// Class is the fully parsed class-file: magic, version, constant pool,
// access flags, this/super, interfaces, fields, methods and attributes.
type Class struct {
	Magic uint32
	Minor uint16
	Major uint16

	CP *ConstantPool

	Flags AccessFlags
	Name  string
	Super string

	Interfaces []string
	Fields     []Field
	Methods    []Method
	Attributes []Attribute
}

// FindMethod returns the first method with the given name, the shape
// makeFrame needs before it can look for that method's Code attribute.
func (c *Class) FindMethod(name string) (*Method, bool) {
	for i := range c.Methods {
		if c.Methods[i].Name == name {
			return &c.Methods[i], true
		}
	}
	return nil, false
}
