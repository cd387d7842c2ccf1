// tdm-checker validates the TDM capture stream emitted by a target running
// the loopback firmware. It reads wire-format frames from a serial device and
// checks every sample against the reference pattern.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"gotdm/host/checker"
	"gotdm/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	lines   = flag.Int("lines", 1, "Data lines per frame")
	chans   = flag.Int("chans", 16, "Channels per line")
	verbose = flag.Bool("verbose", false, "Print each fault as it is found")
)

func main() {
	flag.Parse()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	port, err := serial.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()

	fmt.Printf("Checking TDM capture on %s (%dx%d)...\n", *device, *lines, *chans)

	chk := checker.New(*lines, *chans, checker.ReferencePattern)

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)

	done := make(chan error, 1)
	go func() { done <- run(chk, port) }()

	select {
	case <-interrupted:
	case err := <-done:
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			report(chk)
			os.Exit(1)
		}
	}

	report(chk)
	if chk.Mismatches > 0 || chk.SeqGaps > 0 {
		os.Exit(1)
	}
}

func run(chk *checker.Checker, port serial.Port) error {
	buf := make([]byte, 4096)
	faults := 0
	for {
		n, err := port.Read(buf)
		if n > 0 {
			// A restart after frame zero means the bus lost sync;
			// Feed makes that fatal and we stop immediately.
			if ferr := chk.Feed(buf[:n]); ferr != nil {
				return ferr
			}
			if *verbose {
				for _, f := range chk.Faults[faults:] {
					fmt.Println(f)
				}
				faults = len(chk.Faults)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func report(chk *checker.Checker) {
	fmt.Println(chk.Summary())
	for _, f := range chk.Faults {
		fmt.Println("  " + f)
	}
}
