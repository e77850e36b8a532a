package ebml

import (
	"time"
)

// epoch is the Matroska Date epoch: 2001-01-01T00:00:00Z. Date values
// are signed nanosecond offsets from it.
var epoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// Element is the decoded, typed value tree node. Rather than a Rust-
// style sum type (Go has no natural equivalent), it follows mkvio's
// own shape: one flat struct carrying every kind's payload in its own
// field, with Kind saying which field is meaningful — the same
// dispatch-once-on-kind design spec.md calls for, expressed the way
// the teacher expresses it.
type Element struct {
	Entry

	// Children holds Master payloads, in file order. Empty (not nil)
	// for an empty Master.
	Children []Element

	UInt  uint64
	Int   int64
	Float float64
	Text  string // String/Utf8
	Bytes []byte // Binary and Unknown payloads; SimpleBlock/Block data (laced or not) is in Block.Data
	Date  time.Time
	Void  uint64 // byte count for Void/CRC-32

	Block *SimpleBlock

	// EnumValue/EnumName carry the schema's enumerated UInt fields
	// (TrackType, FlagInterlaced, ChromaSitingHorz/Vert). EnumName is
	// empty when the integer has no named variant — the raw value is
	// still in EnumValue, never dropped.
	EnumValue uint64
	EnumName  string

	Codec CodecID
}

// CodecID is CodecID string's typed variant. Codec strings outside the
// small set spec.md names are preserved via Other, never rejected.
type CodecID struct {
	Known string // "A_OPUS", "A_VORBIS", "V_VP8", "V_VP9", "" if Other is set
	Other string
}

func ParseCodecID(s string) CodecID {
	switch s {
	case "A_OPUS", "A_VORBIS", "V_VP8", "V_VP9":
		return CodecID{Known: s}
	default:
		return CodecID{Other: s}
	}
}

func (c CodecID) String() string {
	if c.Known != "" {
		return c.Known
	}
	return c.Other
}

// Lacing identifies a SimpleBlock's lacing mode. Only NoLacing is
// supported for emission by the muxer; the other three are preserved
// verbatim on ingest with the payload left as opaque bytes (spec.md
// §3, §7 UnsupportedLacing).
type Lacing uint8

const (
	NoLacing Lacing = iota
	XiphLacing
	FixedLacing
	EBMLLacing
)

// SimpleBlockFlags is the single flags byte of a SimpleBlock.
type SimpleBlockFlags struct {
	Keyframe    bool
	Invisible   bool
	Lacing      Lacing
	Discardable bool
}

func decodeSimpleBlockFlags(b byte) SimpleBlockFlags {
	return SimpleBlockFlags{
		Keyframe:    b&0x80 != 0,
		Invisible:   b&0x08 != 0,
		Lacing:      Lacing((b >> 1) & 0x3),
		Discardable: b&0x01 != 0,
	}
}

func (f SimpleBlockFlags) encode() byte {
	var b byte
	if f.Keyframe {
		b |= 0x80
	}
	if f.Invisible {
		b |= 0x08
	}
	b |= byte(f.Lacing&0x3) << 1
	if f.Discardable {
		b |= 0x01
	}
	return b
}

// SimpleBlock is the structurally decoded form of an 0xA3 element's
// binary payload, per spec.md §3 and the decode scenario in §8.3.
type SimpleBlock struct {
	TrackNumber uint64
	Timecode    int16 // relative to the enclosing Cluster's Timecode
	Flags       SimpleBlockFlags
	Data        []byte
}
