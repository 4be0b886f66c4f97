// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"

	"github.com/lumenworks/lumenbus/pkg/lumen"
)

var (
	dumpTimeout int
	dumpDest    uint16
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump a node's full configuration",
	Long: `Request the CBOR self-description from one node and print it.

The response carries the node identity plus the full output descriptor
list including pin assignments, which POLL responses omit.

Example:
  lumenbus dump --port /dev/ttyUSB0 --dest 3

Exit codes:
  0 - Node responded
  1 - No response before the timeout
  2 - Connection error`,
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().IntVar(&dumpTimeout, "timeout", 5, "Timeout in seconds")
	dumpCmd.Flags().Uint16Var(&dumpDest, "dest", 0, "Node address")
	dumpCmd.MarkFlagRequired("dest")
}

// nodeDump mirrors the CBOR document a node emits for DUMPCONFIG.
type nodeDump struct {
	Address    uint16           `cbor:"address"`
	DeviceID   uint16           `cbor:"device_id"`
	ObjectType uint8            `cbor:"object_type"`
	Baud       int              `cbor:"baud"`
	Outputs    []nodeDumpOutput `cbor:"outputs"`
}

type nodeDumpOutput struct {
	Type      uint8  `cbor:"type"`
	Pin       uint8  `cbor:"pin,omitempty"`
	Pins      []int  `cbor:"pins,omitempty"`
	ClockPin  uint8  `cbor:"clock_pin,omitempty"`
	DataPin   uint8  `cbor:"data_pin,omitempty"`
	NumPixels uint16 `cbor:"num_pixels,omitempty"`
	RGBType   uint8  `cbor:"rgb_type,omitempty"`
}

func runDump(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Lumenbus - Config Dump\n")
	fmt.Printf("Connection: %s\n\n", connInfo)

	frame := lumen.MustEncode(lumen.NewDumpConfigRequest(dumpDest))
	fmt.Printf("Sending DUMPCONFIG (dest=0x%04X)...\n", dumpDest)
	if _, err := conn.Write(frame); err != nil {
		fmt.Printf("SEND FAILED: %v\n", err)
		os.Exit(2)
	}

	dumps := make(chan lumen.ConfigDump, 1)
	errChan := make(chan error, 1)

	go func() {
		acc := lumen.NewAccumulator()
		buf := make([]byte, 128)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}
			for j := 0; j < n; j++ {
				raw, err := acc.Feed(buf[j])
				if err != nil || raw == nil {
					continue
				}
				m, err := lumen.Decode(raw)
				if err != nil {
					continue
				}
				if d, ok := m.Payload.(lumen.ConfigDump); ok {
					dumps <- d
				}
			}
		}
	}()

	select {
	case d := <-dumps:
		var doc nodeDump
		if err := cbor.Unmarshal(d.Raw, &doc); err != nil {
			return fmt.Errorf("malformed dump payload: %v", err)
		}
		fmt.Printf("\nNode configuration:\n")
		fmt.Printf("  Address:     %d\n", doc.Address)
		fmt.Printf("  Device ID:   %d\n", doc.DeviceID)
		fmt.Printf("  Object Type: %d\n", doc.ObjectType)
		fmt.Printf("  Baud:        %d\n", doc.Baud)
		fmt.Printf("  Outputs:     %d\n", len(doc.Outputs))
		for i, oc := range doc.Outputs {
			fmt.Printf("    [%d] %s", i, lumen.FormatOutputType(oc.Type))
			switch oc.Type {
			case lumen.OutputValue:
				fmt.Printf(" pin=%d", oc.Pin)
			case lumen.OutputRGB:
				fmt.Printf(" pins=%v", oc.Pins)
			case lumen.OutputPixels:
				fmt.Printf(" clock=%d data=%d pixels=%d rgb_order=%d",
					oc.ClockPin, oc.DataPin, oc.NumPixels, oc.RGBType)
			}
			fmt.Printf("\n")
		}
		return nil
	case err := <-errChan:
		fmt.Printf("READ FAILED: %v\n", err)
		os.Exit(2)
		return nil
	case <-time.After(time.Duration(dumpTimeout) * time.Second):
		fmt.Printf("No response from node 0x%04X.\n", dumpDest)
		os.Exit(1)
		return nil
	}
}
