package ebml

// Header is the decoded ID+Size pair that precedes every EBML
// element's payload — the output of the "decode Element ID VINT;
// decode Size VINT" half of spec.md §4.3's algorithm.
type Header struct {
	Entry
	Size      uint64 // payload length in bytes (Size VINT's Data)
	HeaderLen int    // bytes consumed by ID VINT + Size VINT
}

// Outcome is the Element Decoder's contract result (spec.md §4.3):
// exactly one of Decoded, NeedMoreBytes (err == ErrNeedMoreBytes), or
// SkipHeader is true.
type Outcome struct {
	Header     Header
	Payload    []byte // the element's payload bytes, nil when SkipHeader
	Consumed   int    // total bytes consumed (header + payload); 0 for NeedMoreBytes/SkipHeader
	SkipHeader bool
}

// DecodeHeader reads one element's ID+Size header from the front of
// b and looks up its schema entry. It never reads payload bytes;
// DecodeElement uses the header to decide between Decoded,
// NeedMoreBytes and, for Segment, SkipHeader (so the Segment's
// children can be decoded directly from the same buffer without ever
// materializing a multi-gigabyte Master) — see spec.md §4.3 and §4.5.
func DecodeHeader(b []byte) (Header, error) {
	idv, idn, err := DecodeVINT(b)
	if err != nil {
		return Header{}, err
	}

	sizev, sizen, err := DecodeVINT(b[idn:])
	if err != nil {
		return Header{}, err
	}

	entry := GetEntry(idv.Raw)
	return Header{Entry: entry, Size: sizev.Data, HeaderLen: idn + sizen}, nil
}

// DecodeElement implements the full Element Decoder contract: given a
// byte slice, produce a Decoded outcome, ErrNeedMoreBytes, or a
// SkipHeader outcome.
func DecodeElement(b []byte) (Outcome, error) {
	hdr, err := DecodeHeader(b)
	if err != nil {
		return Outcome{}, err
	}

	if hdr.Name == "Segment" {
		return Outcome{Header: hdr, SkipHeader: true}, nil
	}

	remaining := len(b) - hdr.HeaderLen
	if int64(hdr.Size) > int64(remaining) {
		return Outcome{}, ErrNeedMoreBytes
	}

	payload := b[hdr.HeaderLen : hdr.HeaderLen+int(hdr.Size)]
	return Outcome{
		Header:   hdr,
		Payload:  payload,
		Consumed: hdr.HeaderLen + int(hdr.Size),
	}, nil
}
