package kpatch

import (
	"bytes"
	"encoding/binary"
	"time"
)

// Header is the fixed record at offset 0 of every container.
type Header struct {
	Magic         [8]byte
	TargetID      [TargetIDSize]byte
	BuildTime     uint64
	Checksum      uint64 // reserved, always zero
	RelocCount    uint32
	RelocOffset   uint64
	PayloadOffset uint64
	TotalSize     uint64
}

// NewHeader returns a fully populated header for a payload of payloadLen bytes.
// No relocation table is emitted, so the relocation and payload offsets both
// point just past the header.
func NewHeader(targetID string, payloadLen int, buildTime time.Time) Header {
	var h Header
	copy(h.Magic[:], Magic)
	setTargetID(&h.TargetID, targetID)
	h.BuildTime = uint64(buildTime.Unix())
	h.Checksum = 0
	h.RelocCount = 0
	h.RelocOffset = HeaderSize
	h.PayloadOffset = h.RelocOffset
	h.TotalSize = h.PayloadOffset + uint64(Align16(payloadLen))
	return h
}

// Valid reports whether the magic matches and the offsets are self-consistent.
func (h *Header) Valid() bool {
	if string(h.Magic[:]) != Magic {
		return false
	}
	if h.PayloadOffset < HeaderSize || h.RelocOffset > h.PayloadOffset {
		return false
	}
	if h.TotalSize < h.PayloadOffset {
		return false
	}
	return (h.TotalSize-h.PayloadOffset)%PayloadAlign == 0
}

// TargetIDString returns the target identifier up to its NUL terminator.
func (h *Header) TargetIDString() string {
	id := h.TargetID[:]
	if i := bytes.IndexByte(id, 0); i >= 0 {
		id = id[:i]
	}
	return string(id)
}

// PayloadSize is the aligned payload length recorded in the header.
func (h *Header) PayloadSize() uint64 {
	if h.TotalSize < h.PayloadOffset {
		return 0
	}
	return h.TotalSize - h.PayloadOffset
}

// Time returns BuildTime as a UTC time.
func (h *Header) Time() time.Time {
	return time.Unix(int64(h.BuildTime), 0).UTC()
}

func setTargetID(dst *[TargetIDSize]byte, id string) {
	*dst = [TargetIDSize]byte{}
	// Byte-wise cut, like strncpy in the loader tooling: a multi-byte rune
	// straddling the limit is split.
	if len(id) > TargetIDSize-1 {
		id = id[:TargetIDSize-1]
	}
	copy(dst[:], id)
}

func encodeHeader(dst []byte, h Header) bool {
	if len(dst) < HeaderSize {
		return false
	}
	clear(dst[:HeaderSize])
	copy(dst[offMagic:offTargetID], h.Magic[:])
	copy(dst[offTargetID:offBuildTime], h.TargetID[:])
	binary.LittleEndian.PutUint64(dst[offBuildTime:], h.BuildTime)
	binary.LittleEndian.PutUint64(dst[offChecksum:], h.Checksum)
	binary.LittleEndian.PutUint32(dst[offRelocCount:], h.RelocCount)
	binary.LittleEndian.PutUint64(dst[offRelocOffset:], h.RelocOffset)
	binary.LittleEndian.PutUint64(dst[offPayloadOffset:], h.PayloadOffset)
	binary.LittleEndian.PutUint64(dst[offTotalSize:], h.TotalSize)
	return true
}

func decodeHeader(src []byte) (Header, bool) {
	var h Header
	if len(src) < HeaderSize {
		return h, false
	}
	copy(h.Magic[:], src[offMagic:offTargetID])
	copy(h.TargetID[:], src[offTargetID:offBuildTime])
	h.BuildTime = binary.LittleEndian.Uint64(src[offBuildTime:])
	h.Checksum = binary.LittleEndian.Uint64(src[offChecksum:])
	h.RelocCount = binary.LittleEndian.Uint32(src[offRelocCount:])
	h.RelocOffset = binary.LittleEndian.Uint64(src[offRelocOffset:])
	h.PayloadOffset = binary.LittleEndian.Uint64(src[offPayloadOffset:])
	h.TotalSize = binary.LittleEndian.Uint64(src[offTotalSize:])
	return h, true
}
