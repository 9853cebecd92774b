// Package kpatch implements the kpatch container format.
//
// A container is a fixed-size header followed by the patch payload, padded with
// zeros to a 16-byte boundary. The payload is opaque to this package.
package kpatch

// Format constants must match the loader and never change.
const (
	// Magic identifies a kpatch container. It is encoded as "KPATCH1\0".
	Magic = "KPATCH1\x00"

	// HeaderSize is the encoded size of Header, including the alignment hole
	// after RelocCount.
	HeaderSize = 120

	// TargetIDSize is the width of the target identifier field. At most
	// TargetIDSize-1 bytes are stored; the field is always NUL terminated.
	TargetIDSize = 64

	// PayloadAlign is the alignment applied to the payload length.
	PayloadAlign = 16
)

// Field offsets inside the encoded header.
const (
	offMagic         = 0
	offTargetID      = 8
	offBuildTime     = 72
	offChecksum      = 80
	offRelocCount    = 88
	offRelocOffset   = 96
	offPayloadOffset = 104
	offTotalSize     = 112
)
