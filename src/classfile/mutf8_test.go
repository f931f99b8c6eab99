package classfile

import "testing"

func TestMUTF8RoundTripASCII(t *testing.T) {
	s := "java/lang/Object"
	got, err := decodeMUTF8(encodeMUTF8(s))
	if err != nil {
		t.Fatalf("decodeMUTF8: %v", err)
	}
	if got != s {
		t.Fatalf("got %q, want %q", got, s)
	}
}

func TestMUTF8RoundTripNulByte(t *testing.T) {
	s := "a\x00b"
	enc := encodeMUTF8(s)
	if enc[1] != 0xC0 || enc[2] != 0x80 {
		t.Fatalf("NUL byte not encoded as 0xC0 0x80: %x", enc)
	}
	got, err := decodeMUTF8(enc)
	if err != nil {
		t.Fatalf("decodeMUTF8: %v", err)
	}
	if got != s {
		t.Fatalf("got %q, want %q", got, s)
	}
}

func TestMUTF8RoundTripSupplementaryPlane(t *testing.T) {
	s := "\U0001F600" // outside the BMP, requires a surrogate pair on the wire
	got, err := decodeMUTF8(encodeMUTF8(s))
	if err != nil {
		t.Fatalf("decodeMUTF8: %v", err)
	}
	if got != s {
		t.Fatalf("got %q, want %q", got, s)
	}
}

func TestMUTF8TruncatedSequenceErrors(t *testing.T) {
	_, err := decodeMUTF8([]byte{0xC0})
	if err != errMUTF8Truncated {
		t.Fatalf("err = %v, want errMUTF8Truncated", err)
	}
}
