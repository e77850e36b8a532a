package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-webm/webm/format/webm"
	"github.com/spf13/cobra"
)

func main() {
	var rootCommand = &cobra.Command{
		Use:   "mux <opus-dir> <vp8-dir> <output.webm>",
		Short: "Mux a directory of raw Opus packets and VP8 frames into a WebM file",
		Long: `
Each input directory must contain one file per frame/packet, named so
that lexical sort order is decode order (e.g. 000001.bin, 000002.bin).
Frames are spaced 20ms apart for audio and 33ms apart for video; this
is a fixture format for offline testing, not a real capture source.
`,
		Args: cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			if err := mux(args[0], args[1], args[2]); err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
		},
	}

	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}

func mux(opusDir, vp8Dir, outputFile string) error {
	opusFiles, err := listFiles(opusDir)
	if err != nil {
		return err
	}
	vp8Files, err := listFiles(vp8Dir)
	if err != nil {
		return err
	}

	out, err := os.Create(outputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	m := webm.NewMuxer(out)
	audio, err := m.AddTrack(webm.Caps{Codec: webm.CodecOpus, Kind: webm.KindAudio, Channels: 2})
	if err != nil {
		return err
	}
	video, err := m.AddTrack(webm.Caps{Codec: webm.CodecVP8, Kind: webm.KindVideo, Width: 1280, Height: 720})
	if err != nil {
		return err
	}
	if err := m.WriteHeader(); err != nil {
		return err
	}

	const audioFrameGap = 20 * time.Millisecond
	const videoFrameGap = 33 * time.Millisecond

	type source struct {
		track *webm.Track
		ts    time.Duration
		files []string
		gap   time.Duration
		idx   int
		done  bool
	}
	sources := []*source{
		{track: audio, files: opusFiles, gap: audioFrameGap},
		{track: video, files: vp8Files, gap: videoFrameGap},
	}

	// Each source pushes one frame per round, skipping a round whenever
	// its track still holds an undrained cached block (spec.md §4.7:
	// only one cached block per track) and ending the track once its
	// files run out, so the other source's blocks can keep draining
	// without waiting on it.
	for {
		allDone := true
		for _, s := range sources {
			if s.done {
				continue
			}
			if s.track.Pending() {
				allDone = false
				continue
			}
			if s.idx >= len(s.files) {
				s.done = true
				if err := m.EndTrack(s.track.Number); err != nil {
					return err
				}
				continue
			}
			allDone = false

			payload, err := os.ReadFile(s.files[s.idx])
			if err != nil {
				return err
			}
			ts := s.ts
			if err := m.WriteBuffer(s.track.Number, webm.Timestamp{PTS: &ts}, payload); err != nil {
				return fmt.Errorf("track %d frame %d: %w", s.track.Number, s.idx, err)
			}
			s.ts += s.gap
			s.idx++
		}
		if allDone {
			break
		}
	}

	return m.Close()
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
