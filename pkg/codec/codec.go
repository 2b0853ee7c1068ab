// Package codec serializes domain records to a compact little-endian binary
// form. Every record starts with a one-byte schema version tag so older
// on-disk shapes stay decodable after the in-memory shape changes; encoding
// always emits the latest version.
package codec

import (
	"encoding/binary"
	"fmt"
)

// EncodeError reports a record that could not be serialized.
type EncodeError struct {
	Record string
	Reason string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %s", e.Record, e.Reason)
}

// DecodeError reports malformed binary input. Same severity as a corrupt
// key: it is propagated as an internal error, never retried.
type DecodeError struct {
	Record string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.Record, e.Reason)
}

const maxFieldLen = 1 << 20 // 1 MiB guard against corrupt length headers

// writer appends fixed-width and length-prefixed fields to a buffer.
type writer struct {
	buf []byte
}

func (w *writer) uint8(v byte) {
	w.buf = append(w.buf, v)
}

func (w *writer) uint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *writer) int64(v int64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v))
}

// bytes writes a uint32 length header followed by the raw bytes.
func (w *writer) bytes(b []byte) {
	w.uint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *writer) raw(b []byte) {
	w.buf = append(w.buf, b...)
}

// reader consumes the same layout, failing with DecodeError on truncation.
type reader struct {
	buf    []byte
	off    int
	record string
}

func (r *reader) fail(reason string) error {
	return &DecodeError{Record: r.record, Reason: reason}
}

func (r *reader) uint8() (byte, error) {
	if r.off+1 > len(r.buf) {
		return 0, r.fail("truncated byte field")
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

func (r *reader) uint32() (uint32, error) {
	if r.off+4 > len(r.buf) {
		return 0, r.fail("truncated uint32 field")
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) int64() (int64, error) {
	if r.off+8 > len(r.buf) {
		return 0, r.fail("truncated int64 field")
	}
	v := int64(binary.LittleEndian.Uint64(r.buf[r.off:]))
	r.off += 8
	return v, nil
}

func (r *reader) bytes() ([]byte, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if n > maxFieldLen {
		return nil, r.fail("length header exceeds limit")
	}
	if r.off+int(n) > len(r.buf) {
		return nil, r.fail("truncated variable field")
	}
	out := make([]byte, n)
	copy(out, r.buf[r.off:])
	r.off += int(n)
	return out, nil
}

func (r *reader) string() (string, error) {
	b, err := r.bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// raw reads exactly n bytes without a length header.
func (r *reader) rawN(n int) ([]byte, error) {
	if r.off+n > len(r.buf) {
		return nil, r.fail("truncated fixed field")
	}
	out := r.buf[r.off : r.off+n]
	r.off += n
	return out, nil
}
