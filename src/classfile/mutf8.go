/*
 * Ember VM - an embryonic Java virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"strings"

	"github.com/pkg/errors"
)

// errMUTF8Truncated is returned when a Utf8 constant's byte body ends in
// the middle of a multi-byte sequence.
var errMUTF8Truncated = errors.New("classfile: truncated Modified UTF-8 sequence")

// decodeMUTF8 decodes the JVM's Modified UTF-8 encoding used by every
// CONSTANT_Utf8_info entry. It differs from standard UTF-8 in two ways the
// class-file format actually exercises: the NUL byte is encoded as the
// two-byte sequence 0xC0 0x80 instead of a literal 0x00, and characters
// outside the Basic Multilingual Plane are encoded as a surrogate pair of
// three-byte sequences rather than a single four-byte sequence. No example
// in the retrieval pack implements this specific variant, so this decoder
// is hand-rolled directly from the class-file format's own definition.
func decodeMUTF8(b []byte) (string, error) {
	var sb strings.Builder
	sb.Grow(len(b))

	for i := 0; i < len(b); {
		c0 := b[i]
		switch {
		case c0&0x80 == 0: // 0xxxxxxx
			sb.WriteByte(c0)
			i++

		case c0&0xE0 == 0xC0: // 110xxxxx 10xxxxxx
			if i+1 >= len(b) {
				return "", errMUTF8Truncated
			}
			c1 := b[i+1]
			r := rune(c0&0x1F)<<6 | rune(c1&0x3F)
			sb.WriteRune(r)
			i += 2

		case c0&0xF0 == 0xE0: // 1110xxxx 10xxxxxx 10xxxxxx, or half of a surrogate pair
			if i+2 >= len(b) {
				return "", errMUTF8Truncated
			}
			c1, c2 := b[i+1], b[i+2]
			if c0 == 0xED && i+5 < len(b) && b[i+3] == 0xED && c1&0xF0 == 0xA0 && b[i+4]&0xF0 == 0xB0 {
				c3, c4, c5 := b[i+3], b[i+4], b[i+5]
				hi := rune(c0&0x0F)<<12 | rune(c1&0x3F)<<6 | rune(c2&0x3F)
				lo := rune(c3&0x0F)<<12 | rune(c4&0x3F)<<6 | rune(c5&0x3F)
				r := 0x10000 + (hi-0xD800)<<10 + (lo - 0xDC00)
				sb.WriteRune(r)
				i += 6
				continue
			}
			r := rune(c0&0x0F)<<12 | rune(c1&0x3F)<<6 | rune(c2&0x3F)
			sb.WriteRune(r)
			i += 3

		default:
			return "", errors.Errorf("classfile: invalid Modified UTF-8 lead byte 0x%02x", c0)
		}
	}
	return sb.String(), nil
}

// encodeMUTF8 is the inverse of decodeMUTF8, used by tests to build
// fixtures without hand-assembling byte literals for every string.
func encodeMUTF8(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r == 0:
			out = append(out, 0xC0, 0x80)
		case r < 0x80:
			out = append(out, byte(r))
		case r < 0x800:
			out = append(out, byte(0xC0|r>>6), byte(0x80|r&0x3F))
		case r < 0x10000:
			out = append(out, byte(0xE0|r>>12), byte(0x80|(r>>6)&0x3F), byte(0x80|r&0x3F))
		default:
			r -= 0x10000
			hi := 0xD800 + (r >> 10)
			lo := 0xDC00 + (r & 0x3FF)
			out = append(out, byte(0xE0|hi>>12), byte(0x80|(hi>>6)&0x3F), byte(0x80|hi&0x3F))
			out = append(out, byte(0xE0|lo>>12), byte(0x80|(lo>>6)&0x3F), byte(0x80|lo&0x3F))
		}
	}
	return out
}
