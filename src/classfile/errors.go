/*
 * Ember VM - an embryonic Java virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/pkg/errors"

	"github.com/embervm/ember/src/trace"
)

// ErrBadMagic, ErrConstUnsupportedTag, ErrConstIndexOutOfBounds,
// ErrConstStringNotFound, ErrInvalidInnerClass and ErrAttrTagNotFound are
// the sentinel format errors named by the component's error taxonomy; each
// format failure of those kinds wraps one of them (via cfe, below) so
// callers can distinguish "this buffer isn't a class file at all" from
// "this buffer is a class file with a malformed constant pool". A truncated
// read instead wraps the byte reader's own error, and a constant-pool
// resolution cycle is a plain error. ErrUnsupportedMajorVersion is the one
// taxonomy entry that's config-gated rather than always fatal: see
// ParseClass's use of config.Get().StrictJDK.
var (
	ErrBadMagic            = errors.New("classfile: bad magic number")
	ErrConstUnsupportedTag = errors.New("classfile: unsupported constant pool tag")
	ErrConstIndexOutOfBounds = errors.New("classfile: constant pool index out of bounds")
	ErrConstStringNotFound = errors.New("classfile: constant pool entry does not resolve to a string")
	ErrInvalidInnerClass   = errors.New("classfile: inner class entry has innerInfoIndex == outerInfoIndex")
	ErrAttrTagNotFound     = errors.New("classfile: attribute index does not resolve to a UTF-8 name")
	ErrUnsupportedMajorVersion = errors.New("classfile: major version beyond MaxSupportedMajorVersion")
)

// cfe wraps sentinel as a Class Format Error, stamping the file/line of its
// caller the same way the component's other diagnostics do, and emits it
// through trace at the Parser component tag before returning. sentinel
// stays reachable via errors.Cause, so callers can still distinguish which
// of the taxonomy's format errors fired.
func cfe(sentinel error, format string, args ...interface{}) error {
	err := errors.Wrapf(sentinel, format, args...)

	pc, _, _, ok := runtime.Caller(1)
	if ok {
		fn := runtime.FuncForPC(pc)
		fileName, fileLine := fn.FileLine(pc)
		err = errors.Wrap(err, "detected by "+filepath.Base(fileName)+":"+strconv.Itoa(fileLine))
	}
	trace.Error(trace.Parser, "Class Format Error: "+err.Error())
	return err
}
