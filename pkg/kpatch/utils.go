package kpatch

import "io"

var zeroPad [PayloadAlign]byte

// Align16 rounds n up to the next multiple of PayloadAlign.
func Align16(n int) int {
	return (n + PayloadAlign - 1) &^ (PayloadAlign - 1)
}

// writeFull writes p to w and returns the number of bytes accepted.
// A writer that makes no progress without reporting an error yields io.ErrShortWrite.
func writeFull(w io.Writer, p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		n, err := w.Write(p)
		if n < 0 || n > len(p) {
			return total, io.ErrShortWrite
		}
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}
		p = p[n:]
	}
	return total, nil
}
