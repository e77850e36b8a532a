// Package opusparser inspects Opus packets enough for WebM muxing and
// demuxing: per-packet duration and channel count (kept from vdk's
// original opusparser, used by example/demux to summarize an Opus
// track's decoded audio length) and the CodecPrivate OpusHead
// identification header the muxer writes into each Opus TrackEntry
// (new — the teacher's opusparser only ever reads packets, it never
// had an encode side).
package opusparser

import (
	"encoding/binary"
	"errors"
	"time"
)

// ErrEmptyPacket is returned by PacketDuration for a zero-length
// packet; there is no TOC byte to read.
var ErrEmptyPacket = errors.New("opusparser: empty opus packet")

// ErrInvalidPacket is returned by PacketDuration when the packet's
// frame-count byte is missing for a code-3 TOC.
var ErrInvalidPacket = errors.New("opusparser: invalid opus packet")

// ErrTooManyChannels is returned by BuildIDHeader for any channel
// count outside 1..2, including 0 (spec.md §4.6: "Reject channels > 2"
// — this module handles mono/stereo only, matching the muxer's
// Non-goals).
var ErrTooManyChannels = errors.New("opusparser: channels > 2 not supported")

// Channels returns the channel count implied by a packet's TOC byte.
func Channels(pkt []byte) int {
	if len(pkt) > 0 && (pkt[0]&0x4) == 0 {
		return 1
	}
	return 2
}

// PacketDuration computes one Opus packet's playback duration from
// its TOC byte and frame count, unchanged from the teacher's
// opusparser.PacketDuration.
func PacketDuration(pkt []byte) (time.Duration, error) {
	if len(pkt) < 1 {
		return 0, ErrEmptyPacket
	}
	toc := pkt[0]
	config := toc >> 3
	code := toc & 0x3
	numFr := 0
	switch code {
	case 0:
		if len(pkt) > 1 {
			numFr = 1
		}
	case 1, 2:
		if len(pkt) > 2 {
			numFr = 2
		}
	case 3:
		if len(pkt) < 2 {
			return 0, ErrInvalidPacket
		}
		numFr = int(pkt[1] & 0x3f)
	}
	return time.Duration(numFr) * opusFrameTimes[config], nil
}

// BuildIDHeader constructs the 19-byte OpusHead identification header
// WebM stores verbatim as an Opus TrackEntry's CodecPrivate (spec.md
// §4.6). Pre-skip, input sample rate and output gain are left at their
// safe zero defaults since this muxer never reorders or regains
// samples; channel_mapping_family 0 restricts to mono/stereo, which is
// why channels > 2 is rejected rather than encoded.
func BuildIDHeader(channels int) ([]byte, error) {
	if channels < 1 || channels > 2 {
		return nil, ErrTooManyChannels
	}

	b := make([]byte, 19)
	copy(b[0:8], "OpusHead")
	b[8] = 1 // version
	b[9] = byte(channels)
	binary.LittleEndian.PutUint16(b[10:12], 0) // pre-skip
	binary.LittleEndian.PutUint32(b[12:16], 0) // input sample rate
	binary.LittleEndian.PutUint16(b[16:18], 0) // output gain
	b[18] = 0                                  // channel mapping family
	return b, nil
}

var opusFrameTimes = []time.Duration{
	// SILK NB
	10 * time.Millisecond,
	20 * time.Millisecond,
	40 * time.Millisecond,
	60 * time.Millisecond,
	// SILK MB
	10 * time.Millisecond,
	20 * time.Millisecond,
	40 * time.Millisecond,
	60 * time.Millisecond,
	// SILK WB
	10 * time.Millisecond,
	20 * time.Millisecond,
	40 * time.Millisecond,
	60 * time.Millisecond,
	// Hybrid SWB
	10 * time.Millisecond,
	20 * time.Millisecond,
	// Hybrid FB
	10 * time.Millisecond,
	20 * time.Millisecond,
	// CELT NB
	2500 * time.Microsecond,
	5 * time.Millisecond,
	10 * time.Millisecond,
	20 * time.Millisecond,
	// CELT WB
	2500 * time.Microsecond,
	5 * time.Millisecond,
	10 * time.Millisecond,
	20 * time.Millisecond,
	// CELT SWB
	2500 * time.Microsecond,
	5 * time.Millisecond,
	10 * time.Millisecond,
	20 * time.Millisecond,
	// CELT FB
	2500 * time.Microsecond,
	5 * time.Millisecond,
	10 * time.Millisecond,
	20 * time.Millisecond,
}
