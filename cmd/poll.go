// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumenworks/lumenbus/pkg/lumen"
)

var (
	pollTimeout int
	pollDest    uint16
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Discover nodes via a poll request",
	Long: `Send a POLL request and tabulate the responding nodes.

By default the poll is broadcast: every node on the bus answers with
its address, device id and output descriptors, staggered by address to
avoid collisions. With --dest a single node is polled directly.

Examples:
  # Broadcast discovery over serial
  lumenbus poll --port /dev/ttyUSB0

  # Poll one node over WebSocket
  lumenbus poll --url ws://bridge.local/bus --dest 7

Exit codes:
  0 - At least one node responded
  1 - No responses before the timeout
  2 - Connection error`,
	RunE: runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)
	pollCmd.Flags().IntVar(&pollTimeout, "timeout", 5, "Timeout in seconds")
	pollCmd.Flags().Uint16Var(&pollDest, "dest", lumen.AddressBroadcast, "Destination address (default broadcast)")
}

func runPoll(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Lumenbus - Node Discovery\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n\n", pollTimeout)

	frame := lumen.MustEncode(lumen.NewPollRequest(pollDest))
	fmt.Printf("Sending POLL (dest=0x%04X)...\n", pollDest)
	if _, err := conn.Write(frame); err != nil {
		fmt.Printf("SEND FAILED: %v\n", err)
		os.Exit(2)
	}

	type foundNode struct {
		resp lumen.PollResponse
	}
	nodes := make([]foundNode, 0)
	responses := make(chan lumen.PollResponse, 16)
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
				if resp, ok := m.Payload.(lumen.PollResponse); ok {
					responses <- resp
				}
			}
		}
	}()

	deadline := time.After(time.Duration(pollTimeout) * time.Second)
collect:
	for {
		select {
		case resp := <-responses:
			nodes = append(nodes, foundNode{resp: resp})
			fmt.Printf("\nNode found:\n")
			fmt.Printf("  Address:   %d\n", resp.Config.Address)
			fmt.Printf("  Device ID: %d\n", resp.Config.DeviceID)
			fmt.Printf("  Type:      %d (hw v%d)\n", resp.ObjectType, resp.Config.HardwareVersion)
			fmt.Printf("  Buffer:    %d bytes\n", resp.BufferSize)
			fmt.Printf("  Outputs:   %d\n", resp.Config.NumOutputs)
			for _, oc := range resp.Outputs {
				fmt.Printf("    [%d] %s\n", oc.Output, lumen.FormatOutputType(oc.Type))
			}
			// A unicast poll gets exactly one answer.
			if pollDest != lumen.AddressBroadcast {
				break collect
			}
		case err := <-errChan:
			fmt.Printf("READ FAILED: %v\n", err)
			os.Exit(2)
		case <-deadline:
			break collect
		}
	}

	fmt.Printf("\n--- Poll summary ---\n")
	fmt.Printf("Nodes found: %d\n", len(nodes))

	if len(nodes) == 0 {
		fmt.Printf("No nodes responded. Check connection and node power.\n")
		os.Exit(1)
	}
	return nil
}
