package ebml

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"time"
)

// ErrMalformedEbml is the fatal error for a fully-buffered element
// whose payload cannot be decoded per its schema kind (wrong-width
// float, truncated SimpleBlock track-number VINT, ...). Unlike
// ErrNeedMoreBytes this is never recoverable by buffering more input.
var ErrMalformedEbml = errors.New("ebml: malformed element")

// ParsePayload dispatches on hdr.Kind and decodes payload into a typed
// Element, recursing into Master children via the Element Decoder.
// This is the Typed Parser component of spec.md §4.4.
func ParsePayload(hdr Header, payload []byte) (Element, error) {
	el := Element{Entry: hdr.Entry}

	switch hdr.Kind {
	case KindMaster:
		children, err := parseChildren(payload)
		if err != nil {
			return Element{}, err
		}
		el.Children = children

	case KindUInt:
		el.UInt = parseUint(payload)
		if hdr.Enum != EnumNone {
			el.EnumValue = el.UInt
			el.EnumName = enumName(hdr.Enum, el.UInt)
		}
		if hdr.Name == "CodecID" {
			// CodecID is schema-typed String, not UInt; nothing to do
			// here. Left for clarity that this branch intentionally
			// does not apply to it.
		}

	case KindInt:
		el.Int = parseInt(payload)

	case KindFloat:
		f, err := parseFloat(payload)
		if err != nil {
			return Element{}, err
		}
		el.Float = f

	case KindDate:
		el.Date = parseDate(payload)

	case KindString:
		el.Text = truncateASCII(payload)
		if hdr.Name == "CodecID" {
			el.Codec = ParseCodecID(el.Text)
		}

	case KindUtf8:
		el.Text = truncateUTF8(payload)

	case KindBinary:
		if hdr.Name == "SimpleBlock" || hdr.Name == "Block" {
			blk, err := DecodeSimpleBlock(payload)
			if err != nil {
				return Element{}, err
			}
			el.Block = blk
			if blk.Flags.Lacing != NoLacing {
				// UnsupportedLacing: surfaced to the caller via the
				// returned Element (Block non-nil, Lacing != NoLacing)
				// rather than as an error — ingest still preserves the
				// raw opaque payload in Block.Data, per spec.md §7.
			}
		} else {
			el.Bytes = append([]byte(nil), payload...)
		}

	case KindVoid, KindCrc32:
		el.Void = uint64(len(payload))

	default: // KindUnknown
		el.Bytes = append([]byte(nil), payload...)
	}

	return el, nil
}

// parseChildren repeatedly invokes the Element Decoder over payload
// until it is exhausted, preserving file order (spec.md §4.4 Master,
// §3 invariant "children order preserved").
func parseChildren(payload []byte) ([]Element, error) {
	children := make([]Element, 0)
	pos := 0
	for pos < len(payload) {
		out, err := DecodeElement(payload[pos:])
		if err != nil {
			// A fully-buffered Master's children must themselves be
			// fully buffered; running out of bytes here means the
			// declared sizes lied about the data actually present.
			if errors.Is(err, ErrNeedMoreBytes) {
				return nil, ErrMalformedEbml
			}
			return nil, err
		}
		if out.SkipHeader {
			// A Segment can never legally appear nested inside
			// another Master; treat it as malformed rather than
			// silently losing bytes.
			return nil, ErrMalformedEbml
		}

		child, err := ParsePayload(out.Header, out.Payload)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
		pos += out.Consumed
	}
	return children, nil
}

func enumName(e Enum, v uint64) string {
	var name string
	var ok bool
	switch e {
	case EnumTrackType:
		name, ok = TrackTypeName(v)
	case EnumFlagInterlaced:
		name, ok = FlagInterlacedName(v)
	case EnumChromaSitingHorz, EnumChromaSitingVert:
		name, ok = ChromaSitingName(v)
	}
	if !ok {
		return ""
	}
	return name
}

func parseUint(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

func parseInt(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	v := parseUint(b)
	bits := uint(len(b) * 8)
	if bits < 64 && v&(1<<(bits-1)) != 0 {
		v |= ^uint64(0) << bits
	}
	return int64(v)
}

func parseFloat(b []byte) (float64, error) {
	switch len(b) {
	case 0:
		return 0, nil
	case 4:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(b))), nil
	case 8:
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	default:
		return 0, ErrMalformedEbml
	}
}

func parseDate(b []byte) time.Time {
	if len(b) == 0 {
		return epoch
	}
	ns := parseInt(b)
	return epoch.Add(time.Duration(ns))
}

func truncateASCII(b []byte) string {
	if i := indexNUL(b); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func indexNUL(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}

func truncateUTF8(b []byte) string {
	s := string(b)
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return s
}

// DecodeSimpleBlock structurally decodes a SimpleBlock/Block's binary
// payload: TrackNumber VINT | i16 relative timecode (BE) | flags byte
// | frame data (spec.md §3, §8 scenario 3).
func DecodeSimpleBlock(payload []byte) (*SimpleBlock, error) {
	tn, n, err := DecodeVINT(payload)
	if err != nil {
		if errors.Is(err, ErrNeedMoreBytes) {
			return nil, ErrMalformedEbml
		}
		return nil, err
	}
	if len(payload) < n+3 {
		return nil, ErrMalformedEbml
	}

	timecode := int16(binary.BigEndian.Uint16(payload[n : n+2]))
	flags := decodeSimpleBlockFlags(payload[n+2])
	data := payload[n+3:]

	return &SimpleBlock{
		TrackNumber: tn.Data,
		Timecode:    timecode,
		Flags:       flags,
		Data:        append([]byte(nil), data...),
	}, nil
}
