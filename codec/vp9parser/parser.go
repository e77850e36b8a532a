// Package vp9parser inspects the VP9 uncompressed header far enough
// to tell whether a frame is a keyframe, per the VP9 Bitstream &
// Decoding Process Specification's uncompressed_header() syntax. It
// follows the same narrow, decode-nothing shape as vdk's
// codec/h265parser and this module's sibling codec/vp8parser.
package vp9parser

import (
	"errors"

	"github.com/go-webm/webm/utils/bits"
)

// ErrShortFrame is returned when a payload ends before the fields
// IsKeyframe needs to read are available.
var ErrShortFrame = errors.New("vp9parser: frame too short for uncompressed header")

// IsKeyframe reports whether payload (one VP9 frame) is a keyframe.
//
// The uncompressed header begins: 2-bit frame_marker, profile_low_bit,
// profile_high_bit (profile = high<<1 | low); if profile == 3, one
// reserved_zero bit. Then show_existing_frame: if set, the frame has
// no frame_type at all (a repeat of a previously shown frame) and is
// treated as non-key; otherwise the next bit is frame_type, 0 = KEY
// (spec.md §4.6).
func IsKeyframe(payload []byte) (bool, error) {
	r := bits.NewReader(payload)

	if _, err := r.ReadBits(2); err != nil { // frame_marker
		return false, ErrShortFrame
	}

	low, err := r.ReadBit() // profile_low_bit
	if err != nil {
		return false, ErrShortFrame
	}
	high, err := r.ReadBit() // profile_high_bit
	if err != nil {
		return false, ErrShortFrame
	}
	profile := high<<1 | low

	if profile == 3 {
		if _, err := r.ReadBit(); err != nil { // reserved_zero
			return false, ErrShortFrame
		}
	}

	showExisting, err := r.ReadBit()
	if err != nil {
		return false, ErrShortFrame
	}
	if showExisting == 1 {
		return false, nil
	}

	frameType, err := r.ReadBit()
	if err != nil {
		return false, ErrShortFrame
	}
	return frameType == 0, nil
}
