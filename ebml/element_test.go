package ebml

import "testing"

// TestEBMLHeaderParse follows spec.md §8 scenario 2.
func TestEBMLHeaderParse(t *testing.T) {
	b := []byte{
		0x1A, 0x45, 0xDF, 0xA3, 0x97,
		0x42, 0x86, 0x81, 0x01,
		0x42, 0xF7, 0x81, 0x01,
		0x42, 0xF2, 0x81, 0x04,
		0x42, 0xF3, 0x81, 0x08,
		0x42, 0x82, 0x84, 0x77, 0x65, 0x62, 0x6D,
	}

	out, err := DecodeElement(b)
	if err != nil {
		t.Fatalf("DecodeElement: %v", err)
	}
	if out.Header.Name != "EBML" {
		t.Fatalf("got name %q, want EBML", out.Header.Name)
	}
	if out.Consumed != len(b) {
		t.Fatalf("consumed %d, want %d", out.Consumed, len(b))
	}

	el, err := ParsePayload(out.Header, out.Payload)
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if len(el.Children) != 5 {
		t.Fatalf("got %d children, want 5", len(el.Children))
	}

	want := map[string]uint64{
		"EBMLVersion":       1,
		"EBMLReadVersion":   1,
		"EBMLMaxIDLength":   4,
		"EBMLMaxSizeLength": 8,
	}
	for i, c := range el.Children[:4] {
		if v, ok := want[c.Name]; !ok || c.UInt != v {
			t.Errorf("child %d: got %s=%d", i, c.Name, c.UInt)
		}
	}
	doctype := el.Children[4]
	if doctype.Name != "DocType" || doctype.Text != "webm" {
		t.Errorf("got DocType=%q, want webm", doctype.Text)
	}
}

// TestEBMLHeaderParseIncremental feeds the decoder one byte at a time
// and requires the same result as the single-shot parse (spec.md §8
// "Boundary tests").
func TestEBMLHeaderParseIncremental(t *testing.T) {
	b := []byte{
		0x1A, 0x45, 0xDF, 0xA3, 0x97,
		0x42, 0x86, 0x81, 0x01,
		0x42, 0xF7, 0x81, 0x01,
		0x42, 0xF2, 0x81, 0x04,
		0x42, 0xF3, 0x81, 0x08,
		0x42, 0x82, 0x84, 0x77, 0x65, 0x62, 0x6D,
	}

	var needMoreCount int
	var out Outcome
	var err error
	for i := 1; i <= len(b); i++ {
		out, err = DecodeElement(b[:i])
		if err == ErrNeedMoreBytes {
			needMoreCount++
			continue
		}
		if err != nil {
			t.Fatalf("DecodeElement: %v", err)
		}
		break
	}
	if err != nil {
		t.Fatalf("never completed: %v", err)
	}
	if needMoreCount == 0 {
		t.Error("expected at least one NeedMoreBytes before completion")
	}
	if out.Consumed != len(b) {
		t.Errorf("consumed %d, want %d", out.Consumed, len(b))
	}
}

// TestSimpleBlockDecode follows spec.md §8 scenario 3.
func TestSimpleBlockDecode(t *testing.T) {
	payload := []byte{0x81, 0x00, 0x0A, 0x80, 0xDE, 0xAD, 0xBE, 0xEF}
	blk, err := DecodeSimpleBlock(payload)
	if err != nil {
		t.Fatalf("DecodeSimpleBlock: %v", err)
	}
	if blk.TrackNumber != 1 {
		t.Errorf("track number = %d, want 1", blk.TrackNumber)
	}
	if blk.Timecode != 10 {
		t.Errorf("timecode = %d, want 10", blk.Timecode)
	}
	if !blk.Flags.Keyframe {
		t.Error("expected keyframe flag set")
	}
	if blk.Flags.Invisible || blk.Flags.Discardable || blk.Flags.Lacing != NoLacing {
		t.Errorf("unexpected flags: %+v", blk.Flags)
	}
	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if !bytesEqual(blk.Data, want) {
		t.Errorf("data = % x, want % x", blk.Data, want)
	}
}

// TestSimpleBlockLacingPreserved covers spec.md §8's lacing-bit
// boundary tests: the flag decodes correctly and the payload is left
// untouched even though lacing itself is unsupported for emission.
func TestSimpleBlockLacingPreserved(t *testing.T) {
	for lacing := Lacing(0); lacing <= EBMLLacing; lacing++ {
		flags := SimpleBlockFlags{Lacing: lacing}
		payload := []byte{0x81, 0x00, 0x00, flags.encode(), 0x01, 0x02}
		blk, err := DecodeSimpleBlock(payload)
		if err != nil {
			t.Fatalf("lacing=%d: %v", lacing, err)
		}
		if blk.Flags.Lacing != lacing {
			t.Errorf("lacing=%d: decoded %d", lacing, blk.Flags.Lacing)
		}
		if !bytesEqual(blk.Data, []byte{0x01, 0x02}) {
			t.Errorf("lacing=%d: payload mutated: % x", lacing, blk.Data)
		}
	}
}

func TestEmptyPayloadDefaults(t *testing.T) {
	uintEl, err := ParsePayload(Header{Entry: Entry{Kind: KindUInt}}, nil)
	if err != nil || uintEl.UInt != 0 {
		t.Errorf("empty UInt: %v, %d", err, uintEl.UInt)
	}
	intEl, err := ParsePayload(Header{Entry: Entry{Kind: KindInt}}, nil)
	if err != nil || intEl.Int != 0 {
		t.Errorf("empty Int: %v, %d", err, intEl.Int)
	}
	floatEl, err := ParsePayload(Header{Entry: Entry{Kind: KindFloat}}, nil)
	if err != nil || floatEl.Float != 0 {
		t.Errorf("empty Float: %v, %v", err, floatEl.Float)
	}
	dateEl, err := ParsePayload(Header{Entry: Entry{Kind: KindDate}}, nil)
	if err != nil || !dateEl.Date.Equal(epoch) {
		t.Errorf("empty Date: %v, %v", err, dateEl.Date)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	el := NewMaster("TrackEntry",
		NewUInt("TrackNumber", 1),
		NewString("CodecID", "A_OPUS"),
		NewMaster("Audio", NewUInt("Channels", 2)),
	)

	b, err := Encode(el)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	out, err := DecodeElement(b)
	if err != nil {
		t.Fatalf("DecodeElement: %v", err)
	}
	got, err := ParsePayload(out.Header, out.Payload)
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}

	if got.Name != "TrackEntry" || len(got.Children) != 3 {
		t.Fatalf("got %+v", got)
	}
	if got.Children[0].UInt != 1 {
		t.Errorf("TrackNumber = %d", got.Children[0].UInt)
	}
	if got.Children[1].Text != "A_OPUS" {
		t.Errorf("CodecID = %q", got.Children[1].Text)
	}
	if got.Children[2].Children[0].UInt != 2 {
		t.Errorf("Channels = %d", got.Children[2].Children[0].UInt)
	}
}
