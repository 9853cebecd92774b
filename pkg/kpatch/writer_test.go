package kpatch

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

var testTime = time.Unix(1700000000, 0)

func TestWriteContainerSizes(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 10, 15, 16, 17, 31, 32, 33, 4096, 4097} {
		payload := bytes.Repeat([]byte{0xAB}, n)
		var buf bytes.Buffer
		if err := writeContainer(&buf, payload, "v1", testTime); err != nil {
			t.Fatalf("len %d: write: %v", n, err)
		}

		aligned := (n + 15) / 16 * 16
		if buf.Len() != HeaderSize+aligned {
			t.Fatalf("len %d: output size got %d want %d", n, buf.Len(), HeaderSize+aligned)
		}

		h, ok := decodeHeader(buf.Bytes())
		if !ok {
			t.Fatalf("len %d: decode header failed", n)
		}
		if h.TotalSize != uint64(HeaderSize+aligned) {
			t.Fatalf("len %d: total_size got %d want %d", n, h.TotalSize, HeaderSize+aligned)
		}
		if (h.TotalSize-h.PayloadOffset)%16 != 0 {
			t.Fatalf("len %d: payload not aligned: %d", n, h.TotalSize-h.PayloadOffset)
		}
		if h.RelocCount != 0 || h.RelocOffset != HeaderSize || h.PayloadOffset != HeaderSize {
			t.Fatalf("len %d: reloc fields: count=%d reloc_off=%d payload_off=%d",
				n, h.RelocCount, h.RelocOffset, h.PayloadOffset)
		}
		if h.Checksum != 0 {
			t.Fatalf("len %d: checksum should be zero, got %d", n, h.Checksum)
		}
	}
}

func TestWriteContainerTenBytes(t *testing.T) {
	t.Parallel()

	payload := []byte("0123456789")
	var buf bytes.Buffer
	if err := writeContainer(&buf, payload, "v1", testTime); err != nil {
		t.Fatalf("write: %v", err)
	}

	out := buf.Bytes()
	if len(out) != HeaderSize+16 {
		t.Fatalf("output size got %d want %d", len(out), HeaderSize+16)
	}
	if !bytes.Equal(out[HeaderSize:HeaderSize+10], payload) {
		t.Fatalf("payload mismatch: %q", out[HeaderSize:HeaderSize+10])
	}
	if !bytes.Equal(out[HeaderSize+10:], make([]byte, 6)) {
		t.Fatalf("padding not zero: %x", out[HeaderSize+10:])
	}
	if got := binary.LittleEndian.Uint32(out[offRelocCount:]); got != 0 {
		t.Fatalf("reloc_count got %d", got)
	}
	if string(out[:8]) != Magic {
		t.Fatalf("magic got %q", out[:8])
	}
	if got := binary.LittleEndian.Uint64(out[offBuildTime:]); got != uint64(testTime.Unix()) {
		t.Fatalf("build_time got %d want %d", got, testTime.Unix())
	}
}

func TestWriteContainerExactMultipleNotPadded(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte{0xFF}, 16)
	var buf bytes.Buffer
	if err := WriteContainer(&buf, payload, "v1"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.Len() != HeaderSize+16 {
		t.Fatalf("output size got %d want %d", buf.Len(), HeaderSize+16)
	}
}

func TestWriteContainerTargetIDTruncated(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 200)
	var buf bytes.Buffer
	if err := writeContainer(&buf, []byte{1}, long, testTime); err != nil {
		t.Fatalf("write: %v", err)
	}

	field := buf.Bytes()[offTargetID:offBuildTime]
	if !bytes.Equal(field[:TargetIDSize-1], []byte(long[:TargetIDSize-1])) {
		t.Fatalf("truncated id mismatch: %q", field)
	}
	if field[TargetIDSize-1] != 0 {
		t.Fatalf("target id not terminated: %x", field[TargetIDSize-1])
	}
	// The build time must not have been clobbered by the id.
	if got := binary.LittleEndian.Uint64(buf.Bytes()[offBuildTime:]); got != uint64(testTime.Unix()) {
		t.Fatalf("build_time overwritten: %d", got)
	}
}

func TestWriteContainerTargetIDExactFit(t *testing.T) {
	t.Parallel()

	id := strings.Repeat("y", TargetIDSize)
	h := NewHeader(id, 0, testTime)
	if got := h.TargetIDString(); got != id[:TargetIDSize-1] {
		t.Fatalf("exact-fit id got %q (len %d)", got, len(got))
	}
	if h.TargetID[TargetIDSize-1] != 0 {
		t.Fatalf("exact-fit id not terminated")
	}

	short := NewHeader("4.18.0-305.el8.x86_64", 0, testTime)
	if got := short.TargetIDString(); got != "4.18.0-305.el8.x86_64" {
		t.Fatalf("short id got %q", got)
	}
}

// failWriter accepts up to limit bytes in total and then fails.
type failWriter struct {
	limit int
	n     int
	err   error
}

func (w *failWriter) Write(p []byte) (int, error) {
	room := w.limit - w.n
	if room <= 0 {
		return 0, w.err
	}
	if len(p) > room {
		w.n += room
		return room, w.err
	}
	w.n += len(p)
	return len(p), nil
}

func TestWriteContainerRejectedWrite(t *testing.T) {
	t.Parallel()

	sinkErr := errors.New("broken pipe")
	w := &failWriter{limit: 0, err: sinkErr}
	err := writeContainer(w, []byte("0123456789"), "v1", testTime)
	if err == nil {
		t.Fatalf("expected write error")
	}
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
	if !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink error to be wrapped, got %v", err)
	}
	var we *WriteError
	if !errors.As(err, &we) {
		t.Fatalf("expected *WriteError, got %T", err)
	}
	if we.Written != 0 || we.Want != HeaderSize+16 {
		t.Fatalf("write error counts: written=%d want=%d", we.Written, we.Want)
	}
}

func TestWriteContainerShortPayloadWrite(t *testing.T) {
	t.Parallel()

	w := &failWriter{limit: HeaderSize + 4, err: errors.New("disk full")}
	err := writeContainer(w, bytes.Repeat([]byte{1}, 40), "v1", testTime)
	var we *WriteError
	if !errors.As(err, &we) {
		t.Fatalf("expected *WriteError, got %v", err)
	}
	if we.Written != HeaderSize+4 {
		t.Fatalf("written got %d want %d", we.Written, HeaderSize+4)
	}
}

type stallWriter struct{}

func (stallWriter) Write(p []byte) (int, error) { return 0, nil }

func TestWriteContainerStalledWriter(t *testing.T) {
	t.Parallel()

	err := writeContainer(stallWriter{}, []byte{1, 2, 3}, "v1", testTime)
	if !errors.Is(err, io.ErrShortWrite) {
		t.Fatalf("expected io.ErrShortWrite, got %v", err)
	}
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
}

func TestAlign16(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want int
	}{
		{0, 0},
		{1, 16},
		{15, 16},
		{16, 16},
		{17, 32},
		{1000, 1008},
	}
	for _, tc := range tests {
		if got := Align16(tc.in); got != tc.want {
			t.Errorf("Align16(%d): got %d want %d", tc.in, got, tc.want)
		}
	}
}

func TestHeaderEncodingLittleEndian(t *testing.T) {
	t.Parallel()

	h := NewHeader("5.10.0", 33, testTime)
	h.Checksum = 0x0102030405060708
	h.RelocCount = 0x11223344

	var raw [HeaderSize]byte
	if !encodeHeader(raw[:], h) {
		t.Fatalf("encode header failed")
	}
	if raw[offChecksum] != 0x08 || raw[offChecksum+7] != 0x01 {
		t.Fatalf("checksum is not little-endian: %x", raw[offChecksum:offChecksum+8])
	}
	if raw[offRelocCount] != 0x44 || raw[offRelocCount+3] != 0x11 {
		t.Fatalf("reloc count is not little-endian: %x", raw[offRelocCount:offRelocCount+4])
	}
	if !bytes.Equal(raw[offRelocCount+4:offRelocOffset], []byte{0, 0, 0, 0}) {
		t.Fatalf("alignment hole not zero: %x", raw[offRelocCount+4:offRelocOffset])
	}

	decoded, ok := decodeHeader(raw[:])
	if !ok {
		t.Fatalf("decode header failed")
	}
	if decoded != h {
		t.Fatalf("header round-trip mismatch: got %+v want %+v", decoded, h)
	}
	if decoded.PayloadSize() != 48 {
		t.Fatalf("payload size got %d want 48", decoded.PayloadSize())
	}
}

func TestTargetIDTruncationIsByteWise(t *testing.T) {
	t.Parallel()

	id := strings.Repeat("x", TargetIDSize-2) + "é"
	h := NewHeader(id, 0, testTime)
	got := h.TargetIDString()
	if len(got) != TargetIDSize-1 {
		t.Fatalf("stored id length got %d want %d", len(got), TargetIDSize-1)
	}
	if got != id[:TargetIDSize-1] {
		t.Fatalf("stored id got %q want %q", got, id[:TargetIDSize-1])
	}
	if h.TargetID[TargetIDSize-1] != 0 {
		t.Fatalf("target id not terminated")
	}
}
