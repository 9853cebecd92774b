package kpatch

import (
	"errors"
	"io"
	"time"
)

// WriteContainer writes a container wrapping payload to w.
//
// The header is built and encoded before the first byte reaches w. The payload
// is followed by explicit zero padding up to the next 16-byte boundary. The
// total accepted byte count must equal HeaderSize plus the aligned payload
// length; anything else is reported as a *WriteError. Nothing is retained
// after the call returns.
func WriteContainer(w io.Writer, payload []byte, targetID string) error {
	return writeContainer(w, payload, targetID, time.Now())
}

func writeContainer(w io.Writer, payload []byte, targetID string, now time.Time) error {
	aligned := Align16(len(payload))
	hdr := NewHeader(targetID, len(payload), now)

	var hdrBuf [HeaderSize]byte
	if !encodeHeader(hdrBuf[:], hdr) {
		return errors.New("kpatch: encode header failed")
	}

	want := int64(HeaderSize + aligned)
	var written int64
	for _, chunk := range [][]byte{hdrBuf[:], payload, zeroPad[:aligned-len(payload)]} {
		if len(chunk) == 0 {
			continue
		}
		n, err := writeFull(w, chunk)
		written += int64(n)
		if err != nil {
			return &WriteError{Written: written, Want: want, Err: err}
		}
	}

	if written != want {
		return &WriteError{Written: written, Want: want}
	}
	return nil
}
