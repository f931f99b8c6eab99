package bytesreader

import "testing"

func TestForwardReadsAdvanceHead(t *testing.T) {
	r := New([]byte{0x00, 0x01, 0x00, 0x02, 0xFF})
	v1, err := r.ReadU2()
	if err != nil || v1 != 1 {
		t.Fatalf("ReadU2() = %d, %v; want 1, nil", v1, err)
	}
	v2, err := r.ReadU2()
	if err != nil || v2 != 2 {
		t.Fatalf("ReadU2() = %d, %v; want 2, nil", v2, err)
	}
	if r.Head() != 4 {
		t.Fatalf("Head() = %d, want 4", r.Head())
	}
}

func TestOverflowLeavesHeadUnchanged(t *testing.T) {
	r := New([]byte{0x01, 0x02})
	_, err := r.ReadU4()
	if err != ErrOverflow {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
	if r.Head() != 0 {
		t.Errorf("Head() = %d, want 0 (unchanged on failed read)", r.Head())
	}
}

func TestReadAtSetsHeadFirst(t *testing.T) {
	r := New([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x2A})
	v, err := r.ReadU2At(4)
	if err != nil || v != 0x002A {
		t.Fatalf("ReadU2At(4) = %d, %v; want 42, nil", v, err)
	}
}

func TestReadFromEndRetreatsTail(t *testing.T) {
	r := New([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x11, 0x22})
	// retreat 2 bytes first
	tail, err := r.ReadFromEndBytes(2)
	if err != nil {
		t.Fatalf("ReadFromEndBytes: %v", err)
	}
	if tail[0] != 0x11 || tail[1] != 0x22 {
		t.Fatalf("unexpected tail bytes: %x", tail)
	}
	v, err := r.ReadFromEndU4()
	if err != nil || v != 0xDEADBEEF {
		t.Fatalf("ReadFromEndU4() = %x, %v; want deadbeef, nil", v, err)
	}
}

func TestReadFromEndUnderflowWhenCrossingHead(t *testing.T) {
	r := New([]byte{0x01, 0x02})
	if err := r.Skip(1); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	// only one byte remains between head and tail; asking for 4 must underflow
	_, err := r.ReadFromEndBytes(4)
	if err != ErrUnderflow {
		t.Fatalf("expected ErrUnderflow, got %v", err)
	}
}

func TestLittleEndianReaderOrdering(t *testing.T) {
	r := NewLittleEndian([]byte{0x50, 0x4B, 0x03, 0x04})
	v, err := r.ReadU4()
	if err != nil || v != 0x04034B50 {
		t.Fatalf("ReadU4() = %x, %v; want 04034b50, nil", v, err)
	}
}

func TestFloatBitPatternsPreserved(t *testing.T) {
	r := New([]byte{0x3F, 0x80, 0x00, 0x00}) // 1.0f
	f, err := r.ReadF4()
	if err != nil || f != 1.0 {
		t.Fatalf("ReadF4() = %v, %v; want 1.0, nil", f, err)
	}
}
