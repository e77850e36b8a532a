package ebml

import "testing"

func TestVINTRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 126, 127, 128, 16383, 16384, 1 << 20, 1<<56 - 2}
	for _, n := range values {
		enc, err := EncodeVINT(n)
		if err != nil {
			t.Fatalf("EncodeVINT(%d): %v", n, err)
		}
		v, consumed, err := DecodeVINT(enc)
		if err != nil {
			t.Fatalf("DecodeVINT(%x): %v", enc, err)
		}
		if consumed != len(enc) {
			t.Errorf("n=%d: consumed %d, want %d", n, consumed, len(enc))
		}
		if v.Data != n {
			t.Errorf("n=%d: decoded %d", n, v.Data)
		}
	}
}

func TestVINTEncodeWidths(t *testing.T) {
	cases := []struct {
		n    uint64
		want []byte
	}{
		{0, []byte{0x80}},
		{126, []byte{0xFE}},
		{127, []byte{0x40, 0x7F}},
	}
	for _, c := range cases {
		got, err := EncodeVINT(c.n)
		if err != nil {
			t.Fatalf("EncodeVINT(%d): %v", c.n, err)
		}
		if !bytesEqual(got, c.want) {
			t.Errorf("EncodeVINT(%d) = % x, want % x", c.n, got, c.want)
		}
	}
}

func TestVINTWidth8MaxValue(t *testing.T) {
	const max = 1<<56 - 2
	enc, err := EncodeVINTWidth8(max)
	if err != nil {
		t.Fatalf("EncodeVINTWidth8(max): %v", err)
	}
	v, _, err := DecodeVINT(enc)
	if err != nil {
		t.Fatalf("DecodeVINT: %v", err)
	}
	if v.Data != max {
		t.Errorf("got %d, want %d", v.Data, max)
	}

	if _, err := EncodeVINTWidth8(1<<56 - 1); err == nil {
		t.Error("expected error encoding reserved all-ones value at width 8")
	}
}

func TestVINTNeedMoreBytes(t *testing.T) {
	if _, _, err := DecodeVINT(nil); err != ErrNeedMoreBytes {
		t.Errorf("got %v, want ErrNeedMoreBytes", err)
	}
	// Width-2 marker (0x40) with no second byte.
	if _, _, err := DecodeVINT([]byte{0x40}); err != ErrNeedMoreBytes {
		t.Errorf("got %v, want ErrNeedMoreBytes", err)
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
