package ebml

import (
	"encoding/binary"
	"math"
	"time"
)

// Builder constructors. These are the encode-side counterpart to
// ParsePayload's decode-side dispatch: one constructor per Kind, so
// callers build a typed Element without having to know the wire
// encoding.

func NewMaster(name string, children ...Element) Element {
	entry, _ := GetEntryByName(name)
	return Element{Entry: entry, Children: children}
}

func NewUInt(name string, v uint64) Element {
	entry, _ := GetEntryByName(name)
	return Element{Entry: entry, UInt: v}
}

func NewInt(name string, v int64) Element {
	entry, _ := GetEntryByName(name)
	return Element{Entry: entry, Int: v}
}

func NewFloat(name string, v float64) Element {
	entry, _ := GetEntryByName(name)
	return Element{Entry: entry, Float: v}
}

func NewString(name string, v string) Element {
	entry, _ := GetEntryByName(name)
	return Element{Entry: entry, Text: v}
}

func NewUtf8(name string, v string) Element {
	entry, _ := GetEntryByName(name)
	return Element{Entry: entry, Text: v}
}

func NewDate(name string, t time.Time) Element {
	entry, _ := GetEntryByName(name)
	return Element{Entry: entry, Date: t}
}

func NewBinary(name string, v []byte) Element {
	entry, _ := GetEntryByName(name)
	return Element{Entry: entry, Bytes: v}
}

func NewVoid(n uint64) Element {
	entry, _ := GetEntryByName("Void")
	return Element{Entry: entry, Void: n}
}

func NewSimpleBlock(block SimpleBlock) Element {
	entry, _ := GetEntryByName("SimpleBlock")
	return Element{Entry: entry, Block: &block}
}

// Encode recursively emits element_id_bytes || length_vint || payload
// (spec.md §4.8). Master elements are fully materialized bottom-up —
// the compute-then-emit strategy spec.md requires for Clusters emitted
// discretely.
func Encode(el Element) ([]byte, error) {
	payload, err := encodePayload(el)
	if err != nil {
		return nil, err
	}

	idBytes, err := encodeRawID(el.Entry.ID)
	if err != nil {
		return nil, err
	}
	sizeBytes, err := EncodeVINT(uint64(len(payload)))
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(idBytes)+len(sizeBytes)+len(payload))
	out = append(out, idBytes...)
	out = append(out, sizeBytes...)
	out = append(out, payload...)
	return out, nil
}

// EncodeReservedSize is Encode's placeholder variant: the length VINT
// is always 8 bytes wide regardless of the true payload size, so the
// slot can be patched in place once the final size is known (spec.md
// §4.8, §9 "Fixed-up lengths"). The Muxer does not call it: it writes
// the Segment header from EncodeRawID and EncodeVINTWidth8 directly.
func EncodeReservedSize(el Element, payload []byte) ([]byte, error) {
	idBytes, err := encodeRawID(el.Entry.ID)
	if err != nil {
		return nil, err
	}
	sizeBytes, err := EncodeVINTWidth8(uint64(len(payload)))
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(idBytes)+len(sizeBytes)+len(payload))
	out = append(out, idBytes...)
	out = append(out, sizeBytes...)
	out = append(out, payload...)
	return out, nil
}

// PatchReservedSize rewrites an 8-byte placeholder length VINT in
// place once the true payload size is known, given the offset in buf
// where the length VINT begins.
func PatchReservedSize(buf []byte, lengthOffset int, size uint64) error {
	b, err := EncodeVINTWidth8(size)
	if err != nil {
		return err
	}
	copy(buf[lengthOffset:lengthOffset+8], b)
	return nil
}

// EncodeRawID exposes encodeRawID for callers that need to write an
// element's ID bytes ahead of a payload whose size isn't known yet —
// the Muxer's reserved-size Segment header (spec.md §9).
func EncodeRawID(id uint64) ([]byte, error) {
	return encodeRawID(id)
}

// encodeRawID re-encodes an element's raw ID (width marker included)
// verbatim, byte for byte, rather than deriving it from Width+Data —
// element IDs are compared and stored raw, never masked (spec.md §3
// invariant).
func encodeRawID(raw uint64) ([]byte, error) {
	width := idWidth(raw)
	b := make([]byte, width)
	v := raw
	for i := width - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b, nil
}

// idWidth recovers the byte width of a raw element ID: the smallest
// width whose byte count covers every significant bit of raw (the
// marker bit included, since IDs are stored and compared raw).
func idWidth(raw uint64) int {
	for w := 1; w <= 8; w++ {
		if raw < (uint64(1) << uint(8*w)) {
			return w
		}
	}
	return 8
}

func encodePayload(el Element) ([]byte, error) {
	switch el.Kind {
	case KindMaster:
		var out []byte
		for _, c := range el.Children {
			b, err := Encode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
		}
		return out, nil

	case KindUInt:
		return encodeUint(el.UInt), nil

	case KindInt:
		return encodeInt(el.Int), nil

	case KindFloat:
		return encodeFloat(el.Float), nil

	case KindDate:
		ns := el.Date.Sub(epoch)
		return encodeInt(int64(ns)), nil

	case KindString:
		return []byte(el.Text), nil

	case KindUtf8:
		return []byte(el.Text), nil

	case KindBinary:
		if el.Block != nil {
			return encodeSimpleBlock(*el.Block)
		}
		return el.Bytes, nil

	case KindVoid, KindCrc32:
		return make([]byte, el.Void), nil

	default:
		return el.Bytes, nil
	}
}

// encodeUint emits the minimal big-endian width. 0 emits an empty
// payload, which the parser's "empty payload => 0" rule reads back as
// 0; every other value has at least one significant byte.
func encodeUint(v uint64) []byte {
	if v == 0 {
		return nil
	}
	width := 1
	for x := v >> 8; x != 0; x >>= 8 {
		width++
	}
	b := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

func encodeInt(v int64) []byte {
	if v == 0 {
		return nil
	}
	width := 1
	for !fitsInWidth(v, width) {
		width++
	}
	b := make([]byte, width)
	u := uint64(v)
	for i := width - 1; i >= 0; i-- {
		b[i] = byte(u)
		u >>= 8
	}
	return b
}

func fitsInWidth(v int64, width int) bool {
	bits := uint(width * 8)
	if bits >= 64 {
		return true
	}
	min := -(int64(1) << (bits - 1))
	max := int64(1)<<(bits-1) - 1
	return v >= min && v <= max
}

func encodeFloat(v float64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(v))
	return b
}

func encodeSimpleBlock(blk SimpleBlock) ([]byte, error) {
	tn, err := EncodeVINT(blk.TrackNumber)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(tn)+3+len(blk.Data))
	out = append(out, tn...)
	var tc [2]byte
	binary.BigEndian.PutUint16(tc[:], uint16(blk.Timecode))
	out = append(out, tc[:]...)
	out = append(out, blk.Flags.encode())
	out = append(out, blk.Data...)
	return out, nil
}
