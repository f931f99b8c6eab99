/*
 * Ember VM - an embryonic Java virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package frame

// Opcode constants for the documented subset this interpreter executes.
// Everything else falls through to the step loop's no-op default, logged
// but not treated as an error, per spec.md's stated current behavior.
const (
	opAconstNull = 0x01
	opIconstM1   = 0x02
	opIconst0    = 0x03
	opIconst5    = 0x08 // inclusive upper bound of the iconst_0..5 run

	opIload  = 0x15
	opIload0 = 0x1A
	opIload3 = 0x1D // inclusive upper bound of iload_0..3

	opIstore  = 0x36
	opIstore0 = 0x3B
	opIstore3 = 0x3E // inclusive upper bound of istore_0..3

	opIadd = 0x60
	opIsub = 0x64
	opImul = 0x68
	opIdiv = 0x6C
	opIrem = 0x70
	opIneg = 0x74
	opIand = 0x7E
	opIor  = 0x80

	// Supplemented beyond spec.md's table (REDESIGN FLAG 3): no method
	// body with a loop or a conditional is expressible without these.
	opIfeq      = 0x99
	opIfne      = 0x9A
	opIflt      = 0x9B
	opIfge      = 0x9C
	opIfgt      = 0x9D
	opIfle      = 0x9E
	opIfIcmpeq  = 0x9F
	opIfIcmpne  = 0xA0
	opIfIcmplt  = 0xA1
	opIfIcmpge  = 0xA2
	opIfIcmpgt  = 0xA3
	opIfIcmple  = 0xA4
	opGoto      = 0xA7
	opIreturn   = 0xAC
	opReturn    = 0xB1
)
