package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-webm/webm/codec/opusparser"
	"github.com/go-webm/webm/ebml"
	"github.com/go-webm/webm/format/webm"
	"github.com/spf13/cobra"
)

func main() {
	var rootCommand = &cobra.Command{
		Use:   "demux <file.webm>",
		Short: "Dump the top-level elements of a WebM file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := dump(args[0]); err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
		},
	}

	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}

func dump(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	d := webm.NewDemuxer()
	buf := make([]byte, 32*1024)
	var clusterCount int
	opusTracks := map[uint64]bool{}
	opusDuration := map[uint64]int64{} // track number -> total nanoseconds
	opusChannels := map[uint64]int{}
	for {
		tl, err := d.Next()
		if err == webm.ErrNeedMoreBytes {
			n, rerr := f.Read(buf)
			if n > 0 {
				d.Feed(buf[:n])
			}
			if rerr != nil {
				if n == 0 {
					return summarize(opusTracks, opusDuration, opusChannels)
				}
				continue
			}
			continue
		}
		if err != nil {
			return err
		}

		switch tl.Name {
		case "Tracks":
			opusTracks = findOpusTracks(tl.Element)
			fmt.Printf("%s: %d children\n", tl.Name, len(tl.Element.Children))
		case "Cluster":
			clusterCount++
			fmt.Printf("Cluster #%d: %d children\n", clusterCount, len(tl.Element.Children))
			accumulateOpusDurations(tl.Element, opusTracks, opusDuration, opusChannels)
		default:
			fmt.Printf("%s: %d children\n", tl.Name, len(tl.Element.Children))
		}
	}
}

// findOpusTracks returns the set of TrackNumbers whose CodecID is
// A_OPUS, read from a decoded Tracks element's TrackEntry children.
func findOpusTracks(tracks ebml.Element) map[uint64]bool {
	opus := map[uint64]bool{}
	for _, entry := range tracks.Children {
		if entry.Name != "TrackEntry" {
			continue
		}
		var number uint64
		isOpus := false
		for _, c := range entry.Children {
			switch c.Name {
			case "TrackNumber":
				number = c.UInt
			case "CodecID":
				isOpus = c.Codec.Known == "A_OPUS"
			}
		}
		if isOpus {
			opus[number] = true
		}
	}
	return opus
}

// accumulateOpusDurations sums each Opus track's decoded packet
// duration across a Cluster's SimpleBlocks, using opusparser to
// inspect each packet's TOC byte directly.
func accumulateOpusDurations(cluster ebml.Element, opusTracks map[uint64]bool, total map[uint64]int64, channels map[uint64]int) {
	for _, c := range cluster.Children {
		if c.Name != "SimpleBlock" || c.Block == nil {
			continue
		}
		tn := c.Block.TrackNumber
		if !opusTracks[tn] {
			continue
		}
		if _, ok := channels[tn]; !ok {
			channels[tn] = opusparser.Channels(c.Block.Data)
		}
		d, err := opusparser.PacketDuration(c.Block.Data)
		if err != nil {
			continue
		}
		total[tn] += d.Nanoseconds()
	}
}

func summarize(opusTracks map[uint64]bool, total map[uint64]int64, channels map[uint64]int) error {
	for tn := range opusTracks {
		fmt.Printf("track %d: opus, %d channel(s), %v decoded audio\n", tn, channels[tn], time.Duration(total[tn]))
	}
	return nil
}
