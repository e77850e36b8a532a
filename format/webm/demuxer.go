package webm

import (
	"errors"
	"log"

	"github.com/go-webm/webm/ebml"
)

// ErrNeedMoreBytes re-exports ebml's sentinel: the Streaming Demuxer's
// step function surfaces the identical recoverable condition to its
// caller (spec.md §4.5).
var ErrNeedMoreBytes = ebml.ErrNeedMoreBytes

// TopLevelElement is one decoded direct child of Segment — the unit
// the Streaming Demuxer hands downstream (spec.md §4.5).
type TopLevelElement struct {
	Name    string
	Element ebml.Element
}

// Demuxer implements spec.md §4.5's explicit
// {accumulator, position} state machine: Feed appends input, Next
// drives the step function exactly once per call so the caller
// controls backpressure rather than the parser running ahead on its
// own. It is the byte-slice-driven counterpart to mkvio.Document,
// generalized from Document's whole-file ReadAt model to incremental
// chunks.
type Demuxer struct {
	buf []byte
}

func NewDemuxer() *Demuxer {
	return &Demuxer{}
}

// Feed appends newly-arrived input bytes to the accumulator.
func (d *Demuxer) Feed(chunk []byte) {
	d.buf = append(d.buf, chunk...)
}

// Next decodes as far as the accumulator allows and returns the next
// top-level-of-Segment element in file order, or ErrNeedMoreBytes if
// the accumulator doesn't yet hold enough bytes to complete one. It
// never reorders and never emits more than one element per call
// (spec.md §4.5 "one top-level element per downstream turn").
func (d *Demuxer) Next() (TopLevelElement, error) {
	for {
		outcome, err := ebml.DecodeElement(d.buf)
		if err != nil {
			if errors.Is(err, ebml.ErrNeedMoreBytes) {
				return TopLevelElement{}, ErrNeedMoreBytes
			}
			return TopLevelElement{}, err
		}

		if outcome.SkipHeader {
			// Segment: its body is never materialized. Drop only the
			// header and keep decoding straight into its children
			// (spec.md §4.5 step 3).
			d.buf = d.buf[outcome.Header.HeaderLen:]
			continue
		}

		if !outcome.Header.TopLevel {
			// EBML header or anything else not a direct Segment child:
			// consumed, not emitted (spec.md §4.5 step 4).
			if outcome.Header.Name == "Unknown" {
				log.Printf("webm: skipping unrecognized element id %#x at Segment top level", outcome.Header.ID)
			}
			d.buf = d.buf[outcome.Consumed:]
			continue
		}

		el, err := ebml.ParsePayload(outcome.Header, outcome.Payload)
		if err != nil {
			return TopLevelElement{}, err
		}
		d.buf = d.buf[outcome.Consumed:]
		return TopLevelElement{Name: outcome.Header.Name, Element: el}, nil
	}
}
