//go:build !pcap
// +build !pcap

package main

import (
	"fmt"
	"os"
)

// Stub entrypoint when PCAP support is disabled.
// Build with -tags=pcap to enable capture analysis.
func main() {
	fmt.Fprintln(os.Stderr, "PCAP support not enabled: rebuild with -tags=pcap to enable capture analysis")
	os.Exit(1)
}
