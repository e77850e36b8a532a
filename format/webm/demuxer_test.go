package webm

import "testing"

func TestDemuxerSkipsEBMLHeaderAndSegment(t *testing.T) {
	buf := &seekBuf{}
	m := NewMuxer(buf)
	audio, err := m.AddTrack(Caps{Codec: CodecOpus, Kind: KindAudio, Channels: 1})
	if err != nil {
		t.Fatalf("AddTrack: %v", err)
	}
	if err := m.WriteHeader(); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if err := m.WriteBuffer(audio.Number, Timestamp{PTS: ptr(dur(0))}, []byte{0x01}); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	d := NewDemuxer()
	d.Feed(buf.buf)

	var names []string
	for {
		tl, err := d.Next()
		if err == ErrNeedMoreBytes {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		names = append(names, tl.Name)
	}

	// Audio-only: no video block ever opens a cluster, so no CuePoint is
	// ever queued and writeCues emits nothing (spec.md §4.7 ties cues to
	// video blocks starting a cluster).
	want := []string{"SeekHead", "Info", "Tracks", "Cluster"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("element %d = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestDemuxerFeedInChunksProducesSameOrder(t *testing.T) {
	buf := &seekBuf{}
	m := NewMuxer(buf)
	audio, _ := m.AddTrack(Caps{Codec: CodecOpus, Kind: KindAudio, Channels: 1})
	if err := m.WriteHeader(); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := m.WriteBuffer(audio.Number, Timestamp{PTS: ptr(dur(int64(i) * 20))}, []byte{byte(i), 0xFF}); err != nil {
			t.Fatalf("WriteBuffer: %v", err)
		}
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	chunkSize := 7
	d := NewDemuxer()
	var names []string
	for i := 0; i < len(buf.buf); i += chunkSize {
		end := i + chunkSize
		if end > len(buf.buf) {
			end = len(buf.buf)
		}
		d.Feed(buf.buf[i:end])
		for {
			tl, err := d.Next()
			if err == ErrNeedMoreBytes {
				break
			}
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			names = append(names, tl.Name)
		}
	}

	want := []string{"SeekHead", "Info", "Tracks", "Cluster"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("element %d = %s, want %s", i, names[i], want[i])
		}
	}
}
