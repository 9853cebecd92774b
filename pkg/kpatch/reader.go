package kpatch

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// File is a parsed container.
type File struct {
	Data    []byte
	Header  *Header
	mmapped bool
}

// Open validates a container file and returns it backed by a read-only
// mapping, or by a heap copy when the file cannot be mapped.
// Close releases the mapping.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size, err := containerSize(stat.Size())
	if err != nil {
		return nil, err
	}

	if data, merr := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED); merr == nil {
		kf, err := parse(data, true)
		if err != nil {
			_ = unix.Munmap(data)
			return nil, err
		}
		return kf, nil
	}
	return load(f, size)
}

// OpenReaderAt copies size bytes from r and validates them as a container.
func OpenReaderAt(r io.ReaderAt, size int64) (*File, error) {
	n, err := containerSize(size)
	if err != nil {
		return nil, err
	}
	return load(r, n)
}

// Parse validates a container held in memory. The returned File aliases data.
func Parse(data []byte) (*File, error) {
	return parse(data, false)
}

// containerSize checks that size can hold a header and be indexed as a []byte.
func containerSize(size int64) (int, error) {
	if size < HeaderSize || uint64(size) > uint64(^uint(0)>>1) {
		return 0, fmt.Errorf("%w: size %d", ErrCorruptFile, size)
	}
	return int(size), nil
}

func load(r io.ReaderAt, size int) (*File, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(io.NewSectionReader(r, 0, int64(size)), data); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
		}
		return nil, err
	}
	return parse(data, false)
}

func parse(data []byte, mmapped bool) (*File, error) {
	hdr, ok := decodeHeader(data)
	if !ok {
		return nil, ErrCorruptFile
	}
	if string(hdr.Magic[:]) != Magic {
		return nil, ErrInvalidMagic
	}
	if hdr.TotalSize != uint64(len(data)) {
		return nil, fmt.Errorf("%w: total size %d, file size %d", ErrCorruptFile, hdr.TotalSize, len(data))
	}
	if hdr.PayloadOffset < HeaderSize || hdr.PayloadOffset > hdr.TotalSize {
		return nil, fmt.Errorf("%w: payload offset %d out of range", ErrCorruptFile, hdr.PayloadOffset)
	}
	if hdr.RelocOffset < HeaderSize || hdr.RelocOffset > hdr.PayloadOffset {
		return nil, fmt.Errorf("%w: reloc offset %d out of range", ErrCorruptFile, hdr.RelocOffset)
	}
	if !hdr.Valid() {
		return nil, fmt.Errorf("%w: payload not %d-byte aligned", ErrCorruptFile, PayloadAlign)
	}
	if hdr.RelocCount != 0 {
		return nil, fmt.Errorf("%w: %d entries", ErrUnsupportedRelocs, hdr.RelocCount)
	}

	return &File{
		Data:    data,
		Header:  &hdr,
		mmapped: mmapped,
	}, nil
}

// Close releases any mmap backing.
func (f *File) Close() error {
	if f == nil {
		return nil
	}
	var err error
	if f.Data != nil && f.mmapped {
		err = unix.Munmap(f.Data)
	}
	f.Data = nil
	f.Header = nil
	f.mmapped = false
	return err
}

// Payload returns a zero-copy slice covering the aligned payload region.
// The caller must not retain this slice after Close.
func (f *File) Payload() []byte {
	if f == nil || f.Header == nil || f.Data == nil {
		return nil
	}
	start := f.Header.PayloadOffset
	end := f.Header.TotalSize
	if end < start || end > uint64(len(f.Data)) {
		return nil
	}
	return f.Data[int(start):int(end)]
}
