package webm

import (
	"encoding/binary"
	"time"

	"github.com/go-webm/webm/codec/vp8parser"
	"github.com/go-webm/webm/codec/vp9parser"
	"github.com/google/uuid"
)

// Codec is one of the three coded formats this muxer/demuxer speaks,
// plus Vorbis (decode-bypass only — spec.md §1 Non-goals) and Unknown
// for anything else seen on ingest.
type Codec uint8

const (
	CodecUnknown Codec = iota
	CodecOpus
	CodecVP8
	CodecVP9
	CodecVorbis
)

// CodecID returns the Matroska CodecID string for codecs this muxer
// can emit. It panics for CodecUnknown/CodecVorbis, which callers must
// have already rejected before reaching the serializer.
func (c Codec) CodecID() string {
	switch c {
	case CodecOpus:
		return "A_OPUS"
	case CodecVP8:
		return "V_VP8"
	case CodecVP9:
		return "V_VP9"
	default:
		panic("webm: CodecID called on a non-emittable codec")
	}
}

func (c Codec) isVideo() bool {
	return c == CodecVP8 || c == CodecVP9
}

// isKeyframe reports whether payload is a video keyframe for c. Audio
// codecs are always treated as keyframes by the caller (spec.md §4.7
// SimpleBlock framing), so this is only ever consulted for video.
func (c Codec) isKeyframe(payload []byte) (bool, error) {
	switch c {
	case CodecVP8:
		return vp8parser.IsKeyframe(payload)
	case CodecVP9:
		return vp9parser.IsKeyframe(payload)
	default:
		return false, ErrUnsupportedCodec
	}
}

// Kind is a track's Matroska TrackType restricted to the two this
// muxer emits.
type Kind uint8

const (
	KindAudio Kind = iota
	KindVideo
)

// trackType returns the Matroska TrackType enumerated value.
func (k Kind) trackType() uint64 {
	if k == KindVideo {
		return 1
	}
	return 2
}

// Caps describes a track's static capabilities, supplied once via
// AddTrack — the muxer's "per-track caps declaration" upstream
// interface (spec.md §6).
type Caps struct {
	Codec    Codec
	Kind     Kind
	Channels int // audio only
	Width    int // video only, informational (PixelWidth)
	Height   int // video only, informational (PixelHeight)
}

// Timestamp carries a buffer's presentation and/or decode time. Per
// spec.md §4.7, which of the two is used is fixed per track by
// whichever is present on that track's first buffer.
type Timestamp struct {
	PTS *time.Duration
	DTS *time.Duration
}

// pendingBlock is a track's single cached_block slot (spec.md §3).
type pendingBlock struct {
	absoluteTicks int64 // ticks (1 tick == timestampScale == 1ms)
	payload       []byte
}

// Track is the muxer's per-track state (spec.md §3 "Track (muxer
// state)").
type Track struct {
	Number uint64 // 1-based, assignment order
	UID    uint64
	Caps   Caps

	offsetSet bool
	useDTS    bool
	offset    time.Duration

	lastTicks    int64
	hasLastTicks bool

	cached *pendingBlock
	ended  bool
}

// newTrackUID derives a TrackUID (Matroska wants a nonzero random
// 64-bit integer, not a RFC 4122 binary UUID) from a freshly generated
// UUID's low 8 bytes, replacing the teacher's always-zero TrackUID
// with a real random identifier.
func newTrackUID() uint64 {
	id := uuid.New()
	return binary.BigEndian.Uint64(id[8:16])
}

// Pending reports whether the track already holds a cached block
// awaiting emission. A push-model caller pushing more than one track
// must check this before its next WriteBuffer call on this track —
// WriteBuffer rejects a second push with ErrCachedBlockPending rather
// than silently queuing it, since the engine only ever holds one slot
// per track (spec.md §4.7).
func (t *Track) Pending() bool {
	return t.cached != nil
}

func (t *Track) selectRaw(ts Timestamp) (time.Duration, error) {
	if !t.offsetSet {
		switch {
		case ts.PTS != nil:
			t.useDTS = false
		case ts.DTS != nil:
			t.useDTS = true
		default:
			return 0, ErrMissingTimestamp
		}
	}
	if t.useDTS {
		if ts.DTS == nil {
			return 0, ErrMissingTimestamp
		}
		return *ts.DTS, nil
	}
	if ts.PTS == nil {
		return 0, ErrMissingTimestamp
	}
	return *ts.PTS, nil
}

const timestampScale = time.Millisecond

// normalize converts a raw timestamp into the track's offset-relative
// tick count, per spec.md §4.7. The first call for a track fixes its
// offset at that raw value, so the first normalized tick is always 0.
func (t *Track) normalize(raw time.Duration) int64 {
	if !t.offsetSet {
		t.offset = raw
		t.offsetSet = true
	}
	return int64((raw - t.offset) / timestampScale)
}
