/*
 * Ember VM - an embryonic Java virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/embervm/ember/src/bytesreader"
	"github.com/embervm/ember/src/config"
	"github.com/embervm/ember/src/trace"
)

const classMagic = 0xCAFEBABE

// ParseClass consumes a class-file byte slice top to bottom -- magic,
// version, constant pool, access flags, this/super, interfaces, fields,
// methods, class attributes -- in the order the format requires, since
// every step advances the same shared cursor. Every structural failure is
// wrapped with the failing field's name as it propagates, mirroring the
// wrap-every-read-failure style of the pack's own class-file disassembler.
func ParseClass(buf []byte) (*Class, error) {
	r := bytesreader.New(buf)

	magic, err := r.ReadU4()
	if err != nil {
		return nil, errors.Wrap(err, "reading magic")
	}
	if magic != classMagic {
		return nil, cfe(ErrBadMagic, "0x%08X", magic)
	}

	minor, err := r.ReadU2()
	if err != nil {
		return nil, errors.Wrap(err, "reading minor_version")
	}
	major, err := r.ReadU2()
	if err != nil {
		return nil, errors.Wrap(err, "reading major_version")
	}
	if major > config.MaxSupportedMajorVersion {
		if config.Get().StrictJDK {
			return nil, cfe(ErrUnsupportedMajorVersion, "%d (max supported %d)", major, config.MaxSupportedMajorVersion)
		}
		trace.Warn(trace.Parser, fmt.Sprintf("class file major version %d exceeds MaxSupportedMajorVersion %d; parsing anyway", major, config.MaxSupportedMajorVersion))
	}

	cp, err := parseConstantPool(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading constant pool")
	}

	flags, err := r.ReadU2()
	if err != nil {
		return nil, errors.Wrap(err, "reading access_flags")
	}

	thisIdx, err := r.ReadU2()
	if err != nil {
		return nil, errors.Wrap(err, "reading this_class")
	}
	name, err := cp.ResolveClassName(int(thisIdx))
	if err != nil {
		return nil, errors.Wrap(err, "resolving this_class")
	}

	superIdx, err := r.ReadU2()
	if err != nil {
		return nil, errors.Wrap(err, "reading super_class")
	}
	var super string
	if superIdx != 0 {
		super, err = cp.ResolveClassName(int(superIdx))
		if err != nil {
			return nil, errors.Wrap(err, "resolving super_class")
		}
	}

	interfacesCount, err := r.ReadU2()
	if err != nil {
		return nil, errors.Wrap(err, "reading interfaces_count")
	}
	interfaces := make([]string, interfacesCount)
	for i := range interfaces {
		idx, err := r.ReadU2()
		if err != nil {
			return nil, errors.Wrapf(err, "reading interface %d", i)
		}
		interfaces[i], err = cp.ResolveClassName(int(idx))
		if err != nil {
			return nil, errors.Wrapf(err, "resolving interface %d", i)
		}
	}

	fields, err := parseMembers(r, cp)
	if err != nil {
		return nil, errors.Wrap(err, "reading fields")
	}

	methods, err := parseMembers(r, cp)
	if err != nil {
		return nil, errors.Wrap(err, "reading methods")
	}

	classAttrs, err := parseAttributes(r, cp)
	if err != nil {
		return nil, errors.Wrap(err, "reading class attributes")
	}

	return &Class{
		Magic:      magic,
		Minor:      minor,
		Major:      major,
		CP:         cp,
		Flags:      AccessFlags(flags),
		Name:       name,
		Super:      super,
		Interfaces: interfaces,
		Fields:     toFields(fields),
		Methods:    toMethods(methods),
		Attributes: classAttrs,
	}, nil
}

// parseMembers reads a field_info or method_info array: a u2 count
// followed by that many {flags, name, descriptor, attributes} records.
// Both shapes are identical on the wire; Field vs Method is just which
// slice the caller puts the result into.
func parseMembers(r *bytesreader.Reader, cp *ConstantPool) ([]Member, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, errors.Wrap(err, "reading member count")
	}
	members := make([]Member, count)
	for i := range members {
		flags, err := r.ReadU2()
		if err != nil {
			return nil, errors.Wrapf(err, "member %d: reading access_flags", i)
		}
		nameIdx, err := r.ReadU2()
		if err != nil {
			return nil, errors.Wrapf(err, "member %d: reading name_index", i)
		}
		descIdx, err := r.ReadU2()
		if err != nil {
			return nil, errors.Wrapf(err, "member %d: reading descriptor_index", i)
		}
		name, err := cp.ResolveString(int(nameIdx))
		if err != nil {
			return nil, errors.Wrapf(err, "member %d: resolving name", i)
		}
		desc, err := cp.ResolveString(int(descIdx))
		if err != nil {
			return nil, errors.Wrapf(err, "member %d: resolving descriptor", i)
		}
		attrs, err := parseAttributes(r, cp)
		if err != nil {
			return nil, errors.Wrapf(err, "member %d: reading attributes", i)
		}
		members[i] = Member{Flags: AccessFlags(flags), Name: name, Desc: desc, Attributes: attrs}
	}
	return members, nil
}

func toFields(members []Member) []Field {
	fields := make([]Field, len(members))
	for i, m := range members {
		fields[i] = Field{m}
	}
	return fields
}

func toMethods(members []Member) []Method {
	methods := make([]Method, len(members))
	for i, m := range members {
		methods[i] = Method{m}
	}
	return methods
}
