package vp8parser

import "testing"

func TestIsKeyframe(t *testing.T) {
	cases := []struct {
		name    string
		payload []byte
		want    bool
	}{
		{"keyframe", []byte{0x10, 0x00, 0x00}, true},
		{"interframe", []byte{0x11, 0x00, 0x00}, false},
	}
	for _, c := range cases {
		got, err := IsKeyframe(c.payload)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

func TestIsKeyframeShortFrame(t *testing.T) {
	if _, err := IsKeyframe([]byte{0x10}); err != ErrShortFrame {
		t.Errorf("got %v, want ErrShortFrame", err)
	}
}
