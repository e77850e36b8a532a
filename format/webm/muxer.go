package webm

import (
	"encoding/binary"
	"io"
	"log"
	"math"

	"github.com/go-webm/webm/codec/opusparser"
	"github.com/go-webm/webm/ebml"
	"github.com/google/uuid"
)

// segmentUnknownSize is the EBML unknown-size sentinel for an 8-byte
// length VINT: marker bit set, every data bit set to 1 (0x01FFFFFFFFFFFFFF).
// Written for Segment's length when the sink can't be seeked back into
// to patch a real size, since the zero-valued placeholder
// ebml.EncodeVINTWidth8(0) would otherwise encode Segment as empty.
var segmentUnknownSize = []byte{0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// cueEntry is one row the muxer will emit under Cues at Close.
type cueEntry struct {
	ticks       int64
	trackNumber uint64
	clusterPos  int64 // Segment-relative byte offset of the owning Cluster
}

// Muxer serializes buffers pushed via WriteBuffer into a WebM stream
// (spec.md §6, §9). It follows the push model deepch-vdk's own muxers
// use (AddTrack/WriteHeader/WriteBuffer/Close), generalized from a
// single fixed track pair to the spec's N-track Cluster Engine.
type Muxer struct {
	w  io.Writer
	ws io.WriteSeeker // set when w also implements io.WriteSeeker

	tracks []*Track

	headerWritten bool
	closed        bool

	segmentPos    int64 // bytes written into Segment's payload so far
	segmentSizeAt int64 // absolute file offset of Segment's reserved size field; -1 if w is not seekable
	durationAt    int64 // absolute file offset of Info's Duration payload; -1 if w is not seekable
	maxTicks      int64 // highest absolute tick emitted, patched into Duration at Close

	engine          clusterEngine
	clusterChildren []ebml.Element
	clusterOpenPos  int64 // segmentPos at which the currently open cluster's header starts

	cues []cueEntry
}

// NewMuxer wraps w. When w also implements io.WriteSeeker, the Segment
// size and Info's Duration are patched through it on Close; otherwise
// the muxer runs in write-only mode, writes the Segment size as the
// unknown-size sentinel and leaves Duration at 0 (spec.md §9, "two
// strategies").
func NewMuxer(w io.Writer) *Muxer {
	m := &Muxer{w: w, segmentSizeAt: -1, durationAt: -1}
	if ws, ok := w.(io.WriteSeeker); ok {
		m.ws = ws
	}
	return m
}

// AddTrack registers a track and returns its handle. Must be called
// before WriteHeader (spec.md §6: "no tracks may be added after
// muxing has started").
func (m *Muxer) AddTrack(caps Caps) (*Track, error) {
	if m.headerWritten {
		return nil, ErrLatePadAddition
	}
	switch caps.Codec {
	case CodecVorbis:
		return nil, ErrVorbisUnsupported
	case CodecOpus:
		if caps.Channels > 2 {
			return nil, ErrTooManyChannels
		}
	case CodecVP8, CodecVP9:
		// no extra validation
	default:
		return nil, ErrUnsupportedCodec
	}

	t := &Track{
		Number: uint64(len(m.tracks) + 1),
		UID:    newTrackUID(),
		Caps:   caps,
	}
	m.tracks = append(m.tracks, t)
	if caps.Codec.isVideo() {
		m.engine.hasVideo = true
	}
	return t, nil
}

func (m *Muxer) write(b []byte) error {
	if _, err := m.w.Write(b); err != nil {
		return err
	}
	m.segmentPos += int64(len(b))
	return nil
}

// WriteHeader emits the EBML header, the reserved-size Segment header,
// SeekHead, Info and Tracks — everything that must exist before the
// first Cluster (spec.md §4.2, §9).
func (m *Muxer) WriteHeader() error {
	if m.headerWritten {
		return ErrHeaderAlreadyWritten
	}

	ebmlHeader := ebml.NewMaster("EBML",
		ebml.NewUInt("EBMLVersion", 1),
		ebml.NewUInt("EBMLReadVersion", 1),
		ebml.NewUInt("EBMLMaxIDLength", 4),
		ebml.NewUInt("EBMLMaxSizeLength", 8),
		ebml.NewString("DocType", "webm"),
		ebml.NewUInt("DocTypeVersion", 4),
		ebml.NewUInt("DocTypeReadVersion", 2),
	)
	hb, err := ebml.Encode(ebmlHeader)
	if err != nil {
		return err
	}
	if _, err := m.w.Write(hb); err != nil {
		return err
	}

	segEntry, _ := ebml.GetEntryByName("Segment")
	idBytes, err := ebml.EncodeRawID(segEntry.ID)
	if err != nil {
		return err
	}
	if _, err := m.w.Write(idBytes); err != nil {
		return err
	}
	var sizePlaceholder []byte
	if m.ws != nil {
		pos, err := m.ws.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		m.segmentSizeAt = pos
		sizePlaceholder, err = ebml.EncodeVINTWidth8(0)
		if err != nil {
			return err
		}
	} else {
		log.Printf("webm: output is not seekable, Segment size will remain unknown (0x01FFFFFFFFFFFFFF)")
		sizePlaceholder = segmentUnknownSize
	}
	if _, err := m.w.Write(sizePlaceholder); err != nil {
		return err
	}

	segmentUID := uuid.New()
	infoPrefix := []ebml.Element{
		ebml.NewBinary("SegmentUID", segmentUID[:]),
		ebml.NewUInt("TimecodeScale", uint64(timestampScale)),
		ebml.NewUtf8("MuxingApp", "go-webm"),
		ebml.NewUtf8("WritingApp", "go-webm"),
	}
	var infoPrefixLen int
	for _, c := range infoPrefix {
		b, err := ebml.Encode(c)
		if err != nil {
			return err
		}
		infoPrefixLen += len(b)
	}
	// Duration is patched at EOS (spec.md §4.8), same reserved-slot
	// strategy as Segment's size: NewFloat always encodes as a fixed
	// 8-byte payload, so its offset within Info is known as soon as
	// Info's other children are encoded, before any Duration value
	// exists.
	durationChild := ebml.NewFloat("Duration", 0)
	durationBytes, err := ebml.Encode(durationChild)
	if err != nil {
		return err
	}
	durationPayloadOffsetInInfo := infoPrefixLen + (len(durationBytes) - 8)

	info := ebml.NewMaster("Info", append(append([]ebml.Element{}, infoPrefix...), durationChild)...)
	infoBytes, err := ebml.Encode(info)
	if err != nil {
		return err
	}
	infoHeaderLen := len(infoBytes) - (infoPrefixLen + len(durationBytes))

	entries, err := m.trackEntries()
	if err != nil {
		return err
	}
	tracks := ebml.NewMaster("Tracks", entries...)
	tracksBytes, err := ebml.Encode(tracks)
	if err != nil {
		return err
	}

	seekHeadBytes, err := buildSeekHead(int64(len(infoBytes)), int64(len(tracksBytes)))
	if err != nil {
		return err
	}

	if err := m.write(seekHeadBytes); err != nil {
		return err
	}
	if m.ws != nil {
		pos, err := m.ws.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		m.durationAt = pos + int64(infoHeaderLen+durationPayloadOffsetInInfo)
	}
	if err := m.write(infoBytes); err != nil {
		return err
	}
	if err := m.write(tracksBytes); err != nil {
		return err
	}

	m.headerWritten = true
	return nil
}

// buildSeekHead computes the two-entry SeekHead pointing at Info and
// Tracks. SeekHead's own encoded length feeds back into the offsets it
// records, so this is a small fixed-point loop rather than a single
// pass. The first pass sizes SeekHead with Info at offset 0, which
// encodes as an empty SeekPosition payload, so a typical header needs
// three passes: one to size, one where that offset grows to a byte,
// and one that confirms the length is stable.
func buildSeekHead(infoLen, tracksLen int64) ([]byte, error) {
	infoID, _ := ebml.GetEntryByName("Info")
	tracksID, _ := ebml.GetEntryByName("Tracks")

	var shLen int64
	for i := 0; i < 4; i++ {
		sh := ebml.NewMaster("SeekHead",
			seekEntry(infoID.ID, shLen),
			seekEntry(tracksID.ID, shLen+infoLen),
		)
		b, err := ebml.Encode(sh)
		if err != nil {
			return nil, err
		}
		if int64(len(b)) == shLen {
			return b, nil
		}
		shLen = int64(len(b))
	}
	return nil, errSeekHeadDidNotConverge
}

func seekEntry(id uint64, position int64) ebml.Element {
	idBytes, _ := ebml.EncodeRawID(id)
	return ebml.NewMaster("Seek",
		ebml.NewBinary("SeekID", idBytes),
		ebml.NewUInt("SeekPosition", uint64(position)),
	)
}

func (m *Muxer) trackEntries() ([]ebml.Element, error) {
	entries := make([]ebml.Element, 0, len(m.tracks))
	for _, t := range m.tracks {
		children := []ebml.Element{
			ebml.NewUInt("TrackNumber", t.Number),
			ebml.NewUInt("TrackUID", t.UID),
			ebml.NewUInt("TrackType", t.Caps.Kind.trackType()),
			ebml.NewUInt("FlagLacing", 0),
			ebml.NewString("CodecID", t.Caps.Codec.CodecID()),
		}
		switch t.Caps.Kind {
		case KindAudio:
			channels := t.Caps.Channels
			if channels == 0 {
				channels = 2
			}
			children = append(children,
				ebml.NewMaster("Audio",
					ebml.NewFloat("SamplingFrequency", 48000),
					ebml.NewUInt("Channels", uint64(channels)),
				),
			)
			if t.Caps.Codec == CodecOpus {
				priv, err := opusparser.BuildIDHeader(channels)
				if err != nil {
					return nil, err
				}
				children = append(children, ebml.NewBinary("CodecPrivate", priv))
			}
		case KindVideo:
			children = append(children,
				ebml.NewMaster("Video",
					ebml.NewUInt("PixelWidth", uint64(t.Caps.Width)),
					ebml.NewUInt("PixelHeight", uint64(t.Caps.Height)),
				),
			)
		}
		entries = append(entries, ebml.NewMaster("TrackEntry", children...))
	}
	return entries, nil
}

func (m *Muxer) trackByNumber(n uint64) *Track {
	for _, t := range m.tracks {
		if t.Number == n {
			return t
		}
	}
	return nil
}

// WriteBuffer accepts one coded frame for trackNumber. It caches the
// frame in that track's single-slot buffer and drains the cluster
// engine's merge as far as the currently available cached blocks allow
// (spec.md §6, §9).
func (m *Muxer) WriteBuffer(trackNumber uint64, ts Timestamp, payload []byte) error {
	if !m.headerWritten {
		return ErrHeaderNotWritten
	}
	t := m.trackByNumber(trackNumber)
	if t == nil {
		return ErrUnknownTrack
	}
	if t.cached != nil {
		return ErrCachedBlockPending
	}

	raw, err := t.selectRaw(ts)
	if err != nil {
		return err
	}
	ticks := t.normalize(raw)
	if t.hasLastTicks && ticks < t.lastTicks {
		return ErrNonMonotonicTimestamp
	}
	t.lastTicks = ticks
	t.hasLastTicks = true

	t.cached = &pendingBlock{absoluteTicks: ticks, payload: payload}
	return m.drain()
}

// drain emits every block the merge can safely release right now: as
// long as every non-ended track holds a cached block (or has ended),
// the smallest is not at risk of being overtaken by a late arrival, so
// it can be appended to the open cluster.
func (m *Muxer) drain() error {
	for allTracksReadyOrEnded(m.tracks) {
		next, ok := popSmallest(m.tracks)
		if !ok {
			return nil
		}
		if err := m.appendBlock(next); err != nil {
			return err
		}
	}
	return nil
}

func (m *Muxer) appendBlock(rb readyBlock) error {
	if rb.block.absoluteTicks > m.maxTicks {
		m.maxTicks = rb.block.absoluteTicks
	}

	keyframe := true
	if rb.track.Caps.Codec.isVideo() {
		var err error
		keyframe, err = rb.track.Caps.Codec.isKeyframe(rb.block.payload)
		if err != nil {
			return err
		}
	}

	if m.engine.shouldCloseBefore(rb, len(rb.block.payload)) {
		if err := m.flushCluster(); err != nil {
			return err
		}
	}
	if !m.engine.open {
		m.openCluster(rb.block.absoluteTicks)
	}
	opensCluster := m.engine.firstBlock

	el := simpleBlockChild(rb.track.Number, rb.block.absoluteTicks, m.engine.startTicks, keyframe, rb.block.payload)
	m.clusterChildren = append(m.clusterChildren, el)
	m.engine.bytes += len(rb.block.payload)
	m.engine.firstBlock = false

	// One CuePoint per cluster, for the video block that opens it —
	// not one per keyframe-flagged block (spec.md §4.7). An audio-only
	// stream has no video blocks and so seeds no cues at all.
	if opensCluster && rb.track.Caps.Codec.isVideo() {
		m.cues = append(m.cues, cueEntry{
			ticks:       m.engine.startTicks,
			trackNumber: rb.track.Number,
			clusterPos:  m.clusterOpenPos,
		})
	}
	return nil
}

func (m *Muxer) openCluster(startTicks int64) {
	m.engine.open = true
	m.engine.firstBlock = true
	m.engine.startTicks = startTicks
	m.engine.bytes = 0
	m.clusterOpenPos = m.segmentPos
	m.clusterChildren = []ebml.Element{
		ebml.NewUInt("Timecode", uint64(startTicks)),
	}
}

// flushCluster encodes the accumulated Cluster and writes it out. The
// full child set is already in memory, so the Cluster's size is known
// up front — unlike Segment's, it never needs a reserved-size patch.
func (m *Muxer) flushCluster() error {
	if !m.engine.open {
		return nil
	}
	cluster := ebml.NewMaster("Cluster", m.clusterChildren...)
	b, err := ebml.Encode(cluster)
	if err != nil {
		return err
	}
	if err := m.write(b); err != nil {
		return err
	}
	m.engine.open = false
	m.clusterChildren = nil
	return nil
}

// EndTrack marks a track finished. Once every non-cached track has
// ended, WriteBuffer/Close can drain remaining cached blocks without
// waiting on it (spec.md §6, "explicit end-of-track").
func (m *Muxer) EndTrack(trackNumber uint64) error {
	t := m.trackByNumber(trackNumber)
	if t == nil {
		return ErrUnknownTrack
	}
	t.ended = true
	return m.drain()
}

// Close ends every track, flushes any open cluster, writes Cues, and
// patches the Segment size when the sink supports seeking.
func (m *Muxer) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	if !m.headerWritten {
		return nil
	}

	for _, t := range m.tracks {
		t.ended = true
	}
	if err := m.drain(); err != nil {
		return err
	}
	if err := m.flushCluster(); err != nil {
		return err
	}
	if err := m.writeCues(); err != nil {
		return err
	}

	if m.ws != nil && m.segmentSizeAt >= 0 {
		endPos, err := m.ws.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		if _, err := m.ws.Seek(m.segmentSizeAt, io.SeekStart); err != nil {
			return err
		}
		sizeBytes, err := ebml.EncodeVINTWidth8(uint64(m.segmentPos))
		if err != nil {
			return err
		}
		if _, err := m.ws.Write(sizeBytes); err != nil {
			return err
		}
		if _, err := m.ws.Seek(endPos, io.SeekStart); err != nil {
			return err
		}
	}
	if m.ws != nil && m.durationAt >= 0 {
		endPos, err := m.ws.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		if _, err := m.ws.Seek(m.durationAt, io.SeekStart); err != nil {
			return err
		}
		durBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(durBytes, math.Float64bits(float64(m.maxTicks)))
		if _, err := m.ws.Write(durBytes); err != nil {
			return err
		}
		if _, err := m.ws.Seek(endPos, io.SeekStart); err != nil {
			return err
		}
	}
	return nil
}

func (m *Muxer) writeCues() error {
	if len(m.cues) == 0 {
		return nil
	}
	points := make([]ebml.Element, 0, len(m.cues))
	for _, c := range m.cues {
		points = append(points, ebml.NewMaster("CuePoint",
			ebml.NewUInt("CueTime", uint64(c.ticks)),
			ebml.NewMaster("CueTrackPositions",
				ebml.NewUInt("CueTrack", c.trackNumber),
				ebml.NewUInt("CueClusterPosition", uint64(c.clusterPos)),
			),
		))
	}
	cues := ebml.NewMaster("Cues", points...)
	b, err := ebml.Encode(cues)
	if err != nil {
		return err
	}
	return m.write(b)
}
