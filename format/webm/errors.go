package webm

import "errors"

// Demuxer errors. ErrNeedMoreBytes is re-exported from ebml since it
// is the same recoverable condition the Streaming Demuxer surfaces to
// its caller (spec.md §4.5, §6). Unrecognized top-level elements are
// not an error condition — they are logged and skipped (spec.md §4.2's
// non-fatal UnknownElement handling), so there is no sentinel for that
// case.

// Muxer errors (spec.md §6, §7).
var (
	ErrUnsupportedCodec      = errors.New("webm: unsupported codec")
	ErrTooManyChannels       = errors.New("webm: opus channels > 2")
	ErrLatePadAddition       = errors.New("webm: track added after muxing started")
	ErrVorbisUnsupported     = errors.New("webm: vorbis payload not supported by the muxer")
	ErrMissingTimestamp      = errors.New("webm: buffer has neither pts nor dts")
	ErrCachedBlockPending    = errors.New("webm: track already has an unconsumed cached block")
	ErrUnknownTrack          = errors.New("webm: unknown track number")
	ErrNonMonotonicTimestamp = errors.New("webm: track timestamps are not monotonically non-decreasing")
	ErrHeaderAlreadyWritten  = errors.New("webm: WriteHeader called more than once")
	ErrHeaderNotWritten      = errors.New("webm: WriteBuffer called before WriteHeader")

	errSeekHeadDidNotConverge = errors.New("webm: SeekHead position encoding did not converge")
)
