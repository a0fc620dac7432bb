//go:build pcap
// +build pcap

// Package main provides a PCAP analysis tool for DDP pixel traffic.
// It replays a capture of the datagram stream sent to an LED controller and
// reports per-frame packet counts, payload sizes and sequence continuity,
// which is the quickest way to diagnose a stuttering wall.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/banshee-data/ledwall/internal/ddp"
)

// Config holds configuration for the capture analysis.
type Config struct {
	PCAPFile string
	UDPPort  int
	Verbose  bool
}

// Analysis accumulates per-capture statistics.
type Analysis struct {
	Packets      int
	Malformed    int
	PushPackets  int
	PayloadBytes int

	// Frames are packet groups terminated by a PUSH flag.
	Frames       int
	MaxFrameSize int

	// Sequence continuity. The sender rolls 1..15 per frame, 0 means
	// sequencing is disabled.
	SequenceGaps int
	lastSequence int

	// Offset histogram distinguishes full-frame streams (offset 0 dominant)
	// from sparse run traffic.
	ZeroOffset    int
	NonZeroOffset int

	ByDestination map[int]int

	framePackets int
}

func parseFlags() Config {
	config := Config{}

	flag.StringVar(&config.PCAPFile, "pcap", "", "Path to PCAP file (required)")
	flag.IntVar(&config.UDPPort, "port", ddp.DefaultPort, "UDP port carrying pixel data")
	flag.BoolVar(&config.Verbose, "v", false, "Log every packet")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Capture analysis tool for DDP pixel traffic\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -pcap wall_capture.pcap\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -pcap wall_capture.pcap -port 4048 -v\n", os.Args[0])
	}

	flag.Parse()
	return config
}

func main() {
	config := parseFlags()

	if config.PCAPFile == "" {
		fmt.Fprintln(os.Stderr, "Error: PCAP file is required")
		flag.Usage()
		os.Exit(1)
	}

	if _, err := os.Stat(config.PCAPFile); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: PCAP file not found: %s\n", config.PCAPFile)
		os.Exit(1)
	}

	analysis, err := analyseCapture(config)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	printSummary(config, analysis)
}

func analyseCapture(config Config) (*Analysis, error) {
	handle, err := pcap.OpenOffline(config.PCAPFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open PCAP file %s: %w", config.PCAPFile, err)
	}
	defer handle.Close()

	filterStr := fmt.Sprintf("udp port %d", config.UDPPort)
	if err := handle.SetBPFFilter(filterStr); err != nil {
		return nil, fmt.Errorf("failed to set BPF filter '%s': %w", filterStr, err)
	}

	analysis := &Analysis{ByDestination: make(map[int]int)}

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	for packet := range packetSource.Packets() {
		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp, ok := udpLayer.(*layers.UDP)
		if !ok || len(udp.Payload) == 0 {
			continue
		}

		analysis.addPacket(udp.Payload, config.Verbose)
	}

	return analysis, nil
}

func (a *Analysis) addPacket(payload []byte, verbose bool) {
	a.Packets++

	pkt, err := ddp.ParsePacket(payload)
	if err != nil {
		a.Malformed++
		if verbose {
			log.Printf("packet %d: malformed: %v", a.Packets, err)
		}
		return
	}

	a.PayloadBytes += len(pkt.Payload)
	a.ByDestination[int(pkt.Destination)]++
	a.framePackets++

	if pkt.Offset == 0 {
		a.ZeroOffset++
	} else {
		a.NonZeroOffset++
	}

	seq := int(pkt.Sequence)
	if seq != 0 && a.lastSequence != 0 {
		expected := a.lastSequence%ddp.MaxSequence + 1
		if seq != a.lastSequence && seq != expected {
			a.SequenceGaps++
			if verbose {
				log.Printf("packet %d: sequence gap: got %d, expected %d or %d",
					a.Packets, seq, a.lastSequence, expected)
			}
		}
	}
	a.lastSequence = seq

	if pkt.Push() {
		a.PushPackets++
		a.Frames++
		if a.framePackets > a.MaxFrameSize {
			a.MaxFrameSize = a.framePackets
		}
		a.framePackets = 0
	}

	if verbose {
		log.Printf("packet %d: seq=%d dest=%d offset=%d len=%d push=%v",
			a.Packets, seq, pkt.Destination, pkt.Offset, len(pkt.Payload), pkt.Push())
	}
}

func printSummary(config Config, a *Analysis) {
	fmt.Println("\n========== DDP Capture Summary ==========")
	fmt.Printf("File: %s (udp port %d)\n", config.PCAPFile, config.UDPPort)
	fmt.Println()
	fmt.Printf("Packets: %d (%d malformed)\n", a.Packets, a.Malformed)
	fmt.Printf("Payload: %d bytes\n", a.PayloadBytes)
	fmt.Printf("Frames: %d (push packets: %d, largest frame: %d packets)\n",
		a.Frames, a.PushPackets, a.MaxFrameSize)
	fmt.Printf("Offsets: %d at zero, %d non-zero (sparse runs)\n",
		a.ZeroOffset, a.NonZeroOffset)
	fmt.Printf("Sequence gaps: %d\n", a.SequenceGaps)
	fmt.Println("\nPackets by destination:")
	for dest, count := range a.ByDestination {
		fmt.Printf("  %d: %d\n", dest, count)
	}
	fmt.Println("==========================================")
}
