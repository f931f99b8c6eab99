/*
 * Ember VM - an embryonic Java virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package zipfile implements the JAR container reader (C2): it locates and
// walks the Central Directory of a ZIP archive, inflates DEFLATE-compressed
// entries, and yields the raw payload of every .class member. Structures
// and field names follow the wire layout named in the JVM/ZIP
// specifications; the walking algorithm follows the teacher's own
// best-effort, "a malformed record ends the walk but doesn't lose prior
// results" philosophy (classloader.go's ParseAndPostClass continues past a
// single bad class rather than aborting the whole load).
package zipfile

import (
	"bytes"
	"compress/flate"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/embervm/ember/src/bytesreader"
	"github.com/embervm/ember/src/trace"
)

const (
	localHeaderMagic  = 0x04034B50
	centralMagic      = 0x02014B50
	eocdMagic         = 0x06054B50
	eocdFixedSize     = 22
	eocdMaxCommentLen = 65535
	maxEOCDScan       = eocdFixedSize + eocdMaxCommentLen

	compressStored  = 0
	compressDeflate = 8
)

// ErrJarUnderflow is returned for any candidate JAR smaller than the
// smallest possible (commentless, zero-entry) End-Of-Central-Directory
// record.
var ErrJarUnderflow = errors.New("zipfile: file too small to be a JAR")

// ErrJarBadMagic is returned when the located EOCD record (or a Central
// Directory / local-header record it points to) fails its magic check.
var ErrJarBadMagic = errors.New("zipfile: bad ZIP magic number")

// EndOfCentralDirectory is the EOCD record, decoded from the file tail.
type EndOfCentralDirectory struct {
	DiskNumber         uint16
	StartDisk          uint16
	RecordsOnThisDisk  uint16
	TotalRecords       uint16
	CentralDirSize     uint32
	CentralDirOffset   uint32
	CommentLen         uint16
}

// CentralRecord is one Central Directory File Header.
type CentralRecord struct {
	MadeBy     uint16
	Version    uint16
	Flag       uint16
	Compress   uint16
	ModTime    uint16
	ModDate    uint16
	CRC        uint32
	CompSize   uint32
	UncompSize uint32
	NameLen    uint16
	ExtraLen   uint16
	CommentLen uint16
	Disk       uint16
	IntAttr    uint16
	ExtAttr    uint32
	LocalOff   uint32
	Name       string
}

// LocalHeader is the Local File Header preceding an entry's compressed
// data.
type LocalHeader struct {
	Version  uint16
	Flag     uint16
	Compress uint16
	ModTime  uint16
	ModDate  uint16
	CRC      uint32
	CompSize uint32
	UncompSize uint32
	NameLen  uint16
	ExtraLen uint16
	Name     string
}

// Size returns the byte length of the local header, including its
// variable-length name/extra suffix -- the payload begins right after it.
func (h LocalHeader) Size() int {
	return 30 + int(h.NameLen) + int(h.ExtraLen)
}

// Entry is a decompressed archive member along with its name.
type Entry struct {
	Name string
	Data []byte
}

// FindEOCD scans backward from the end of buf looking for the EOCD magic,
// per the spec's corrected policy: the source assumed a fixed tail offset
// and no comment, but a conformant reader must scan back up to 65 557
// bytes (22-byte fixed EOCD plus a comment of up to 65 535 bytes).
func FindEOCD(buf []byte) (EndOfCentralDirectory, int, error) {
	if len(buf) < eocdFixedSize {
		return EndOfCentralDirectory{}, 0, ErrJarUnderflow
	}

	scanFrom := len(buf) - maxEOCDScan
	if scanFrom < 0 {
		scanFrom = 0
	}
	window := buf[scanFrom:]

	pos := -1
	for i := len(window) - eocdFixedSize; i >= 0; i-- {
		if window[i] == 0x50 && window[i+1] == 0x4B && window[i+2] == 0x05 && window[i+3] == 0x06 {
			pos = scanFrom + i
			break
		}
	}
	if pos < 0 {
		return EndOfCentralDirectory{}, 0, ErrJarBadMagic
	}

	r := bytesreader.NewLittleEndian(buf)
	if err := r.Seek(pos); err != nil {
		return EndOfCentralDirectory{}, 0, errors.Wrap(err, "seeking to EOCD")
	}
	magic, err := r.ReadU4()
	if err != nil || magic != eocdMagic {
		return EndOfCentralDirectory{}, 0, ErrJarBadMagic
	}

	eocd := EndOfCentralDirectory{}
	u2 := func() uint16 { v, e := r.ReadU2(); if e != nil && err == nil { err = e }; return v }
	u4 := func() uint32 { v, e := r.ReadU4(); if e != nil && err == nil { err = e }; return v }

	eocd.DiskNumber = u2()
	eocd.StartDisk = u2()
	eocd.RecordsOnThisDisk = u2()
	eocd.TotalRecords = u2()
	eocd.CentralDirSize = u4()
	eocd.CentralDirOffset = u4()
	eocd.CommentLen = u2()
	if err != nil {
		return EndOfCentralDirectory{}, 0, errors.Wrap(err, "reading EOCD body")
	}
	return eocd, pos, nil
}

func readCentralRecord(r *bytesreader.LittleEndianReader, pos int) (CentralRecord, int, error) {
	if err := r.Seek(pos); err != nil {
		return CentralRecord{}, 0, err
	}
	magic, err := r.ReadU4()
	if err != nil {
		return CentralRecord{}, 0, err
	}
	if magic != centralMagic {
		return CentralRecord{}, 0, ErrJarBadMagic
	}

	var rec CentralRecord
	var readErr error
	u2 := func() uint16 {
		v, e := r.ReadU2()
		if e != nil && readErr == nil {
			readErr = e
		}
		return v
	}
	u4 := func() uint32 {
		v, e := r.ReadU4()
		if e != nil && readErr == nil {
			readErr = e
		}
		return v
	}

	rec.MadeBy = u2()
	rec.Version = u2()
	rec.Flag = u2()
	rec.Compress = u2()
	rec.ModTime = u2()
	rec.ModDate = u2()
	rec.CRC = u4()
	rec.CompSize = u4()
	rec.UncompSize = u4()
	rec.NameLen = u2()
	rec.ExtraLen = u2()
	rec.CommentLen = u2()
	rec.Disk = u2()
	rec.IntAttr = u2()
	rec.ExtAttr = u4()
	rec.LocalOff = u4()
	if readErr != nil {
		return CentralRecord{}, 0, readErr
	}

	nameBytes, err := r.ReadBytes(int(rec.NameLen))
	if err != nil {
		return CentralRecord{}, 0, err
	}
	rec.Name = string(nameBytes)

	next := r.Head() + int(rec.ExtraLen) + int(rec.CommentLen)
	return rec, next, nil
}

func readLocalHeader(r *bytesreader.LittleEndianReader, pos int) (LocalHeader, error) {
	if err := r.Seek(pos); err != nil {
		return LocalHeader{}, err
	}
	magic, err := r.ReadU4()
	if err != nil {
		return LocalHeader{}, err
	}
	if magic != localHeaderMagic {
		return LocalHeader{}, ErrJarBadMagic
	}

	var h LocalHeader
	var readErr error
	u2 := func() uint16 {
		v, e := r.ReadU2()
		if e != nil && readErr == nil {
			readErr = e
		}
		return v
	}
	u4 := func() uint32 {
		v, e := r.ReadU4()
		if e != nil && readErr == nil {
			readErr = e
		}
		return v
	}

	h.Version = u2()
	h.Flag = u2()
	h.Compress = u2()
	h.ModTime = u2()
	h.ModDate = u2()
	h.CRC = u4()
	h.CompSize = u4()
	h.UncompSize = u4()
	h.NameLen = u2()
	h.ExtraLen = u2()
	if readErr != nil {
		return LocalHeader{}, readErr
	}

	nameBytes, err := r.ReadBytes(int(h.NameLen))
	if err != nil {
		return LocalHeader{}, err
	}
	h.Name = string(nameBytes)
	return h, nil
}

// inflate decompresses compSize compressed bytes starting at off in buf, expecting
// exactly uncompressedSize bytes out.
func inflate(buf []byte, off, compSize, uncompressedSize int) ([]byte, error) {
	if off < 0 || off+compSize > len(buf) {
		return nil, bytesreader.ErrOverflow
	}
	zr := flate.NewReader(bytes.NewReader(buf[off : off+compSize]))
	defer zr.Close()
	out := make([]byte, uncompressedSize)
	n, err := io.ReadFull(zr, out)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, errors.Wrap(err, "inflating DEFLATE entry")
	}
	if n != uncompressedSize {
		return nil, errors.Errorf("inflated %d bytes, expected %d", n, uncompressedSize)
	}
	return out, nil
}

// WalkClassEntries parses buf as a ZIP archive and returns the payload of
// every .class member, in Central Directory order. A single malformed
// record terminates the walk and returns whatever entries were already
// collected, per the loader's best-effort failure semantics (the caller
// decides whether a partial result is acceptable).
func WalkClassEntries(buf []byte) ([]Entry, error) {
	eocd, _, err := FindEOCD(buf)
	if err != nil {
		return nil, err
	}

	cdr := bytesreader.NewLittleEndian(buf)
	pos := int(eocd.CentralDirOffset)

	var entries []Entry
walk:
	for i := 0; i < int(eocd.TotalRecords); i++ {
		rec, next, err := readCentralRecord(cdr, pos)
		if err != nil {
			trace.Warn(trace.Loader, "central directory record "+strconv.Itoa(i)+" malformed; stopping walk: "+err.Error())
			break walk
		}
		pos = next

		if rec.CompSize == 0 || rec.UncompSize == 0 || !hasClassSuffix(rec.Name) {
			continue
		}

		lhr := bytesreader.NewLittleEndian(buf)
		lh, err := readLocalHeader(lhr, int(rec.LocalOff))
		if err != nil {
			trace.Warn(trace.Loader, "local header for "+rec.Name+" malformed; stopping walk: "+err.Error())
			break walk
		}

		payloadOff := int(rec.LocalOff) + lh.Size()
		var data []byte
		switch rec.Compress {
		case compressStored:
			if payloadOff+int(rec.UncompSize) > len(buf) {
				trace.Warn(trace.Loader, "stored entry "+rec.Name+" runs past end of file; stopping walk")
				break walk
			}
			data = append([]byte(nil), buf[payloadOff:payloadOff+int(rec.UncompSize)]...)
		case compressDeflate:
			data, err = inflate(buf, payloadOff, int(rec.CompSize), int(rec.UncompSize))
			if err != nil {
				trace.Warn(trace.Loader, "failed to inflate "+rec.Name+": "+err.Error())
				continue
			}
		default:
			trace.Warn(trace.Loader, "unsupported compression method "+strconv.Itoa(int(rec.Compress))+" for "+rec.Name+"; skipping")
			continue
		}
		entries = append(entries, Entry{Name: rec.Name, Data: data})
	}

	return entries, nil
}

func hasClassSuffix(name string) bool {
	return len(name) > 6 && name[len(name)-6:] == ".class"
}

