package webm

import "github.com/go-webm/webm/ebml"

// Cluster boundary policy (spec.md §9): a cluster closes when its
// accumulated payload reaches clusterMaxBytes, when its span reaches
// clusterMaxDuration, or — whenever any video track is present in the
// segment — at the next video keyframe, whichever comes first.
const (
	clusterMaxBytes    = 5 * 1024 * 1024
	clusterMaxDuration = 5000 // ticks (ms)
)

// readyBlock is one track's cached block paired with its owning
// track, produced by the cluster engine's merge step.
type readyBlock struct {
	track *Track
	block *pendingBlock
}

// lessBlock orders two candidate blocks by (absolute timestamp, video
// before audio at equal timestamps) — spec.md §9's k-way merge order.
func lessBlock(a, b readyBlock) bool {
	if a.block.absoluteTicks != b.block.absoluteTicks {
		return a.block.absoluteTicks < b.block.absoluteTicks
	}
	aVideo := a.track.Caps.Codec.isVideo()
	bVideo := b.track.Caps.Codec.isVideo()
	if aVideo != bVideo {
		return aVideo
	}
	return false
}

// clusterEngine holds the muxer's in-progress cluster state. It does
// not itself hold the per-track cached blocks — those live on Track —
// it only tracks what has already been appended to the cluster being
// built.
type clusterEngine struct {
	hasVideo bool // true if the segment has at least one video track

	open       bool
	startTicks int64
	bytes      int
	firstBlock bool // true until the first SimpleBlock of this cluster is appended
}

// popSmallest scans the ready candidates (one per track with a cached
// block) and removes+returns the smallest per lessBlock. With the
// small, bounded track counts WebM streams actually carry (a handful of audio/video tracks,
// never thousands), a linear scan over tracks each step is simpler to
// reason about than heap index bookkeeping and costs nothing
// observable in practice. This is a deliberate divergence from a
// heap-based merge, not from the ordering contract itself.
func popSmallest(tracks []*Track) (readyBlock, bool) {
	var best readyBlock
	found := false
	for _, tr := range tracks {
		if tr.cached == nil {
			continue
		}
		cand := readyBlock{track: tr, block: tr.cached}
		if !found || lessBlock(cand, best) {
			best = cand
			found = true
		}
	}
	if found {
		best.track.cached = nil
	}
	return best, found
}

// allTracksReadyOrEnded reports whether every non-ended track has a
// cached block, meaning the merge can safely emit the smallest one
// (spec.md §9: a track with no cached block blocks emission unless it
// has been explicitly ended, since an arriving late block could still
// precede what's been emitted).
func allTracksReadyOrEnded(tracks []*Track) bool {
	for _, tr := range tracks {
		if tr.ended {
			continue
		}
		if tr.cached == nil {
			return false
		}
	}
	return true
}

// shouldCloseBefore reports whether appending next (about to be
// written as a SimpleBlock into the open cluster) should instead
// trigger a cluster boundary first.
func (c *clusterEngine) shouldCloseBefore(next readyBlock, payloadLen int) bool {
	if !c.open || c.firstBlock {
		return false
	}
	if c.bytes+payloadLen >= clusterMaxBytes {
		return true
	}
	if next.block.absoluteTicks-c.startTicks >= clusterMaxDuration {
		return true
	}
	if c.hasVideo && next.track.Caps.Codec.isVideo() {
		if kf, _ := next.track.Caps.Codec.isKeyframe(next.block.payload); kf {
			return true
		}
	}
	return false
}

// simpleBlockChild builds the SimpleBlock element for a block being
// appended to the cluster that started at clusterStartTicks. The
// first block of a cluster always carries relative timecode 0
// (spec.md §4.7, §9).
func simpleBlockChild(trackNumber uint64, absoluteTicks, clusterStartTicks int64, keyframe bool, payload []byte) ebml.Element {
	rel := int16(absoluteTicks - clusterStartTicks)
	sb := ebml.SimpleBlock{
		TrackNumber: trackNumber,
		Timecode:    rel,
		Flags:       ebml.SimpleBlockFlags{Keyframe: keyframe},
		Data:        payload,
	}
	return ebml.NewSimpleBlock(sb)
}
