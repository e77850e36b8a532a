package ebml

// Kind classifies how an element's payload is decoded. It mirrors the
// closed tagged union from mkvio.ElementType (ElementTypeMaster,
// ElementTypeUint, ...) with the additions spec.md calls for: a
// distinct Crc32 kind (so it is never confused with opaque Binary) and
// a Void kind (size recorded, payload discarded).
type Kind uint8

const (
	KindUnknown Kind = iota
	KindMaster
	KindUInt
	KindInt
	KindFloat
	KindString
	KindUtf8
	KindBinary
	KindDate
	KindVoid
	KindCrc32
)

func (k Kind) String() string {
	switch k {
	case KindMaster:
		return "Master"
	case KindUInt:
		return "UInt"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindUtf8:
		return "Utf8"
	case KindBinary:
		return "Binary"
	case KindDate:
		return "Date"
	case KindVoid:
		return "Void"
	case KindCrc32:
		return "Crc32"
	default:
		return "Unknown"
	}
}

// Enum identifies which of the small set of UInt fields carry
// enumerated semantics, per spec.md §3/§4.4.
type Enum uint8

const (
	EnumNone Enum = iota
	EnumTrackType
	EnumFlagInterlaced
	EnumChromaSitingHorz
	EnumChromaSitingVert
)

// Entry is one row of the schema: the static, closed mapping from a
// raw (unmasked) element ID to its name and kind. Unknown IDs are not
// represented here; GetEntry synthesizes an Unknown entry for them.
type Entry struct {
	ID   uint64 // raw VINT, width marker included, e.g. 0x1A45DFA3 for EBML
	Name string
	Kind Kind
	Enum Enum

	// TopLevel marks names that may appear as a direct child of
	// Segment and are the unit the Streaming Demuxer (webm package)
	// emits downstream one at a time.
	TopLevel bool
}

// Schema is the single source of truth for element typing, keyed by
// raw element ID. It is a compile-time constant table, built once in
// init and never mutated afterward.
var (
	byID   = map[uint64]Entry{}
	byName = map[string]Entry{}
)

func register(id uint64, name string, kind Kind, enum Enum, topLevel bool) {
	e := Entry{ID: id, Name: name, Kind: kind, Enum: enum, TopLevel: topLevel}
	byID[id] = e
	byName[name] = e
}

func init() {
	register(0x1A45DFA3, "EBML", KindMaster, EnumNone, false)
	register(0x4286, "EBMLVersion", KindUInt, EnumNone, false)
	register(0x42F7, "EBMLReadVersion", KindUInt, EnumNone, false)
	register(0x42F2, "EBMLMaxIDLength", KindUInt, EnumNone, false)
	register(0x42F3, "EBMLMaxSizeLength", KindUInt, EnumNone, false)
	register(0x4282, "DocType", KindString, EnumNone, false)
	register(0x4287, "DocTypeVersion", KindUInt, EnumNone, false)
	register(0x4285, "DocTypeReadVersion", KindUInt, EnumNone, false)
	register(0xEC, "Void", KindVoid, EnumNone, false)
	register(0xBF, "CRC-32", KindCrc32, EnumNone, false)

	register(0x18538067, "Segment", KindMaster, EnumNone, false)

	register(0x114D9B74, "SeekHead", KindMaster, EnumNone, true)
	register(0x4DBB, "Seek", KindMaster, EnumNone, false)
	register(0x53AB, "SeekID", KindBinary, EnumNone, false)
	register(0x53AC, "SeekPosition", KindUInt, EnumNone, false)

	register(0x1549A966, "Info", KindMaster, EnumNone, true)
	register(0x73A4, "SegmentUID", KindBinary, EnumNone, false)
	register(0x7384, "SegmentFilename", KindUtf8, EnumNone, false)
	register(0x2AD7B1, "TimecodeScale", KindUInt, EnumNone, false)
	register(0x4489, "Duration", KindFloat, EnumNone, false)
	register(0x4461, "DateUTC", KindDate, EnumNone, false)
	register(0x7BA9, "Title", KindUtf8, EnumNone, false)
	register(0x4D80, "MuxingApp", KindUtf8, EnumNone, false)
	register(0x5741, "WritingApp", KindUtf8, EnumNone, false)

	register(0x1F43B675, "Cluster", KindMaster, EnumNone, true)
	register(0xE7, "Timecode", KindUInt, EnumNone, false)
	register(0xA7, "Position", KindUInt, EnumNone, false)
	register(0xAB, "PrevSize", KindUInt, EnumNone, false)
	register(0xA3, "SimpleBlock", KindBinary, EnumNone, false)
	register(0xA0, "BlockGroup", KindMaster, EnumNone, false)
	register(0xA1, "Block", KindBinary, EnumNone, false)
	register(0x9B, "BlockDuration", KindUInt, EnumNone, false)
	register(0xFB, "ReferenceBlock", KindInt, EnumNone, false)
	register(0x75A2, "DiscardPadding", KindInt, EnumNone, false)

	register(0x1654AE6B, "Tracks", KindMaster, EnumNone, true)
	register(0xAE, "TrackEntry", KindMaster, EnumNone, false)
	register(0xD7, "TrackNumber", KindUInt, EnumNone, false)
	register(0x73C5, "TrackUID", KindUInt, EnumNone, false)
	register(0x83, "TrackType", KindUInt, EnumTrackType, false)
	register(0xB9, "FlagEnabled", KindUInt, EnumNone, false)
	register(0x88, "FlagDefault", KindUInt, EnumNone, false)
	register(0x55AA, "FlagForced", KindUInt, EnumNone, false)
	register(0x9C, "FlagLacing", KindUInt, EnumNone, false)
	register(0x23E383, "DefaultDuration", KindUInt, EnumNone, false)
	register(0x536E, "Name", KindUtf8, EnumNone, false)
	register(0x22B59C, "Language", KindString, EnumNone, false)
	register(0x86, "CodecID", KindString, EnumNone, false)
	register(0x63A2, "CodecPrivate", KindBinary, EnumNone, false)
	register(0x258688, "CodecName", KindUtf8, EnumNone, false)
	register(0x56AA, "CodecDelay", KindUInt, EnumNone, false)
	register(0x56BB, "SeekPreRoll", KindUInt, EnumNone, false)

	register(0xE0, "Video", KindMaster, EnumNone, false)
	register(0x9A, "FlagInterlaced", KindUInt, EnumFlagInterlaced, false)
	register(0xB0, "PixelWidth", KindUInt, EnumNone, false)
	register(0xBA, "PixelHeight", KindUInt, EnumNone, false)
	register(0x54B0, "DisplayWidth", KindUInt, EnumNone, false)
	register(0x54BA, "DisplayHeight", KindUInt, EnumNone, false)
	register(0x54B2, "DisplayUnit", KindUInt, EnumNone, false)
	register(0x55B7, "ChromaSitingHorz", KindUInt, EnumChromaSitingHorz, false)
	register(0x55B8, "ChromaSitingVert", KindUInt, EnumChromaSitingVert, false)

	register(0xE1, "Audio", KindMaster, EnumNone, false)
	register(0xB5, "SamplingFrequency", KindFloat, EnumNone, false)
	register(0x9F, "Channels", KindUInt, EnumNone, false)
	register(0x6264, "BitDepth", KindUInt, EnumNone, false)

	register(0x1C53BB6B, "Cues", KindMaster, EnumNone, true)
	register(0xBB, "CuePoint", KindMaster, EnumNone, false)
	register(0xB3, "CueTime", KindUInt, EnumNone, false)
	register(0xB7, "CueTrackPositions", KindMaster, EnumNone, false)
	register(0xF7, "CueTrack", KindUInt, EnumNone, false)
	register(0xF1, "CueClusterPosition", KindUInt, EnumNone, false)
	register(0xF0, "CueRelativePosition", KindUInt, EnumNone, false)

	register(0x1254C367, "Tags", KindMaster, EnumNone, true)
	register(0x7373, "Tag", KindMaster, EnumNone, false)
	register(0x63C0, "Targets", KindMaster, EnumNone, false)
	register(0x68CA, "TargetTypeValue", KindUInt, EnumNone, false)
	register(0x67C8, "SimpleTag", KindMaster, EnumNone, false)
	register(0x45A3, "TagName", KindUtf8, EnumNone, false)
	register(0x447A, "TagLanguage", KindString, EnumNone, false)
	register(0x4484, "TagDefault", KindUInt, EnumNone, false)
	register(0x4487, "TagString", KindUtf8, EnumNone, false)
	register(0x4485, "TagBinary", KindBinary, EnumNone, false)
}

// GetEntry returns the schema row for a raw element ID. Unknown IDs
// are not fatal: the decoder still consumes their declared length and
// skips them, using the synthesized (Unknown, KindUnknown) entry.
func GetEntry(id uint64) Entry {
	if e, ok := byID[id]; ok {
		return e
	}
	return Entry{ID: id, Name: "Unknown", Kind: KindUnknown}
}

// GetEntryByName is the reverse lookup the Serializer uses to find an
// element's raw ID when emitting by name.
func GetEntryByName(name string) (Entry, bool) {
	e, ok := byName[name]
	return e, ok
}

// TrackTypeName maps TrackType's enumerated integer values to their
// named variants. Unknown integers are preserved by the caller as
// Raw(n), never dropped (spec.md §4.4).
func TrackTypeName(v uint64) (string, bool) {
	switch v {
	case 1:
		return "video", true
	case 2:
		return "audio", true
	case 3:
		return "complex", true
	case 0x10:
		return "logo", true
	case 0x11:
		return "subtitle", true
	case 0x12:
		return "buttons", true
	case 0x20:
		return "control", true
	case 0x21:
		return "metadata", true
	default:
		return "", false
	}
}

// FlagInterlacedName maps FlagInterlaced's enumerated values.
func FlagInterlacedName(v uint64) (string, bool) {
	switch v {
	case 0:
		return "undetermined", true
	case 1:
		return "interlaced", true
	case 2:
		return "progressive", true
	default:
		return "", false
	}
}

// ChromaSitingName maps ChromaSitingHorz/Vert's enumerated values.
// Horizontal and vertical share the same small value space (0..3 for
// horizontal, 0..3 for vertical in the Matroska spec), so one mapper
// covers both axes; the caller knows which axis it called for.
func ChromaSitingName(v uint64) (string, bool) {
	switch v {
	case 0:
		return "unspecified", true
	case 1:
		return "left", true // or "top" for the vertical axis
	case 2:
		return "half", true
	case 3:
		return "right", true // or "bottom" for the vertical axis
	default:
		return "", false
	}
}
