package zipfile

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"testing"
)

// builtEntry holds the local header + payload bytes for one archive
// member, along with the fields a matching central record needs.
type builtEntry struct {
	name       string
	compress   uint16
	local      []byte
	compSize   uint32
	uncompSize uint32
}

func storedEntry(name string, data []byte) builtEntry {
	local := localHeaderBytes(name, compressStored, uint32(len(data)), uint32(len(data)))
	local = append(local, data...)
	return builtEntry{name: name, compress: compressStored, local: local, compSize: uint32(len(data)), uncompSize: uint32(len(data))}
}

func deflatedEntry(name string, data []byte) builtEntry {
	var buf bytes.Buffer
	w, _ := flate.NewWriter(&buf, flate.DefaultCompression)
	_, _ = w.Write(data)
	_ = w.Close()
	comp := buf.Bytes()
	local := localHeaderBytes(name, compressDeflate, uint32(len(comp)), uint32(len(data)))
	local = append(local, comp...)
	return builtEntry{name: name, compress: compressDeflate, local: local, compSize: uint32(len(comp)), uncompSize: uint32(len(data))}
}

func localHeaderBytes(name string, compress uint16, compSize, uncompSize uint32) []byte {
	b := make([]byte, 30)
	binary.LittleEndian.PutUint32(b[0:4], localHeaderMagic)
	binary.LittleEndian.PutUint16(b[4:6], 20)
	binary.LittleEndian.PutUint16(b[6:8], 0)
	binary.LittleEndian.PutUint16(b[8:10], compress)
	binary.LittleEndian.PutUint16(b[10:12], 0)
	binary.LittleEndian.PutUint16(b[12:14], 0)
	binary.LittleEndian.PutUint32(b[14:18], 0)
	binary.LittleEndian.PutUint32(b[18:22], compSize)
	binary.LittleEndian.PutUint32(b[22:26], uncompSize)
	binary.LittleEndian.PutUint16(b[26:28], uint16(len(name)))
	binary.LittleEndian.PutUint16(b[28:30], 0)
	return append(b, []byte(name)...)
}

func centralRecordBytes(e builtEntry, localOff uint32) []byte {
	b := make([]byte, 46)
	binary.LittleEndian.PutUint32(b[0:4], centralMagic)
	binary.LittleEndian.PutUint16(b[4:6], 20)
	binary.LittleEndian.PutUint16(b[6:8], 20)
	binary.LittleEndian.PutUint16(b[8:10], 0)
	binary.LittleEndian.PutUint16(b[10:12], e.compress)
	binary.LittleEndian.PutUint16(b[12:14], 0)
	binary.LittleEndian.PutUint16(b[14:16], 0)
	binary.LittleEndian.PutUint32(b[16:20], 0)
	binary.LittleEndian.PutUint32(b[20:24], e.compSize)
	binary.LittleEndian.PutUint32(b[24:28], e.uncompSize)
	binary.LittleEndian.PutUint16(b[28:30], uint16(len(e.name)))
	binary.LittleEndian.PutUint16(b[30:32], 0)
	binary.LittleEndian.PutUint16(b[32:34], 0)
	binary.LittleEndian.PutUint16(b[34:36], 0)
	binary.LittleEndian.PutUint16(b[36:38], 0)
	binary.LittleEndian.PutUint32(b[38:42], 0)
	binary.LittleEndian.PutUint32(b[42:46], localOff)
	return append(b, []byte(e.name)...)
}

// buildJar assembles a minimal in-memory JAR from the given entries.
func buildJar(entries ...builtEntry) []byte {
	var buf bytes.Buffer
	offsets := make([]uint32, len(entries))
	for i, e := range entries {
		offsets[i] = uint32(buf.Len())
		buf.Write(e.local)
	}
	cdStart := uint32(buf.Len())
	for i, e := range entries {
		buf.Write(centralRecordBytes(e, offsets[i]))
	}
	cdSize := uint32(buf.Len()) - cdStart

	eocd := make([]byte, eocdFixedSize)
	binary.LittleEndian.PutUint32(eocd[0:4], eocdMagic)
	binary.LittleEndian.PutUint16(eocd[4:6], 0)
	binary.LittleEndian.PutUint16(eocd[6:8], 0)
	binary.LittleEndian.PutUint16(eocd[8:10], uint16(len(entries)))
	binary.LittleEndian.PutUint16(eocd[10:12], uint16(len(entries)))
	binary.LittleEndian.PutUint32(eocd[12:16], cdSize)
	binary.LittleEndian.PutUint32(eocd[16:20], cdStart)
	binary.LittleEndian.PutUint16(eocd[20:22], 0)
	buf.Write(eocd)

	return buf.Bytes()
}

func TestWalkClassEntriesStoredRoundTrip(t *testing.T) {
	payload := []byte("cafebabe-stub-class-bytes")
	jar := buildJar(storedEntry("pkg/Main.class", payload))

	entries, err := WalkClassEntries(jar)
	if err != nil {
		t.Fatalf("WalkClassEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Name != "pkg/Main.class" {
		t.Fatalf("Name = %q, want pkg/Main.class", entries[0].Name)
	}
	if !bytes.Equal(entries[0].Data, payload) {
		t.Fatalf("Data = %q, want %q", entries[0].Data, payload)
	}
}

func TestWalkClassEntriesDeflateRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("ABCD"), 64)
	jar := buildJar(deflatedEntry("a/B.class", payload))

	entries, err := WalkClassEntries(jar)
	if err != nil {
		t.Fatalf("WalkClassEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if len(entries[0].Data) != len(payload) {
		t.Fatalf("len(Data) = %d, want %d", len(entries[0].Data), len(payload))
	}
	if !bytes.Equal(entries[0].Data, payload) {
		t.Fatalf("Data mismatch after inflate")
	}
}

func TestWalkClassEntriesSkipsNonClassMembers(t *testing.T) {
	jar := buildJar(
		storedEntry("META-INF/MANIFEST.MF", []byte("Manifest-Version: 1.0\n")),
		storedEntry("pkg/Main.class", []byte("classbytes")),
	)

	entries, err := WalkClassEntries(jar)
	if err != nil {
		t.Fatalf("WalkClassEntries: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "pkg/Main.class" {
		t.Fatalf("expected only pkg/Main.class, got %v", entries)
	}
}

func TestWalkClassEntriesEmptyArchive(t *testing.T) {
	jar := buildJar()

	entries, err := WalkClassEntries(jar)
	if err != nil {
		t.Fatalf("WalkClassEntries: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("len(entries) = %d, want 0", len(entries))
	}
}

func TestFindEOCDRejectsCorruptTail(t *testing.T) {
	buf := bytes.Repeat([]byte{0xFF}, 1024)
	_, _, err := FindEOCD(buf)
	if err != ErrJarBadMagic {
		t.Fatalf("FindEOCD() error = %v, want ErrJarBadMagic", err)
	}
}

func TestFindEOCDRejectsUndersizedFile(t *testing.T) {
	_, _, err := FindEOCD([]byte{0x01, 0x02, 0x03})
	if err != ErrJarUnderflow {
		t.Fatalf("FindEOCD() error = %v, want ErrJarUnderflow", err)
	}
}

func TestFindEOCDLocatesRecordPastTrailingComment(t *testing.T) {
	jar := buildJar(storedEntry("pkg/Main.class", []byte("x")))
	jar = append(jar, []byte("trailing comment bytes")...)
	// patch the comment length field so the EOCD scan still finds a
	// structurally valid record even though it's no longer file-final.
	eocdStart := len(jar) - len("trailing comment bytes") - eocdFixedSize
	binary.LittleEndian.PutUint16(jar[eocdStart+20:eocdStart+22], uint16(len("trailing comment bytes")))

	_, pos, err := FindEOCD(jar)
	if err != nil {
		t.Fatalf("FindEOCD: %v", err)
	}
	if pos != eocdStart {
		t.Fatalf("pos = %d, want %d", pos, eocdStart)
	}
}
