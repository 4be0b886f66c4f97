// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumenworks/lumenbus/pkg/lumen"
)

var (
	sendDest   uint16
	sendOutput uint8

	sendValueLevel uint16
	sendOnPeriod   uint16
	sendOffPeriod  uint16
	sendPeriod     uint32
	sendOnRGB      string
	sendOffRGB     string
	sendCycle      bool

	setAddrDevice uint16
	setAddrNew    uint16
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send output, program and addressing messages",
	Long: `Construct and transmit control messages to nodes.

Every subcommand takes --dest (node address, default broadcast) and
most take --output (output index on the node). Channel values are
written as comma-separated triples, e.g. --on-rgb 255,0,0.

Examples:
  # Set output 0 on node 3 to half brightness
  lumenbus send value --port /dev/ttyUSB0 --dest 3 --value 128

  # Blink output 1 red/off at 500ms on every node
  lumenbus send blink --port /dev/ttyUSB0 --output 1 --on-rgb 255,0,0

  # Retarget the node with device id 12 to address 7
  lumenbus send setaddr --port /dev/ttyUSB0 --device 12 --address 7`,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.PersistentFlags().Uint16Var(&sendDest, "dest", lumen.AddressBroadcast, "Destination address (default broadcast)")
	sendCmd.PersistentFlags().Uint8Var(&sendOutput, "output", 0, "Output index")

	sendCmd.AddCommand(sendValueCmd)
	sendValueCmd.Flags().Uint16Var(&sendValueLevel, "value", 0, "Output level")

	sendCmd.AddCommand(sendRGBCmd)
	sendRGBCmd.Flags().StringVar(&sendOnRGB, "rgb", "0,0,0", "Channel values r,g,b")

	sendCmd.AddCommand(sendBlinkCmd)
	sendBlinkCmd.Flags().Uint16Var(&sendOnPeriod, "on-period", 500, "On period (ms)")
	sendBlinkCmd.Flags().Uint16Var(&sendOffPeriod, "off-period", 500, "Off period (ms)")
	sendBlinkCmd.Flags().StringVar(&sendOnRGB, "on-rgb", "255,255,255", "On values r,g,b")
	sendBlinkCmd.Flags().StringVar(&sendOffRGB, "off-rgb", "0,0,0", "Off values r,g,b")

	sendCmd.AddCommand(sendFadeCmd)
	sendFadeCmd.Flags().Uint32Var(&sendPeriod, "period", 1000, "Fade period (ms)")
	sendFadeCmd.Flags().StringVar(&sendOnRGB, "from-rgb", "0,0,0", "Start values r,g,b")
	sendFadeCmd.Flags().StringVar(&sendOffRGB, "to-rgb", "255,255,255", "Stop values r,g,b")
	sendFadeCmd.Flags().BoolVar(&sendCycle, "cycle", false, "Restart the fade when it completes")

	sendCmd.AddCommand(sendTimedCmd)
	sendTimedCmd.Flags().Uint32Var(&sendPeriod, "period", 1000, "Change period (ms)")
	sendTimedCmd.Flags().StringVar(&sendOnRGB, "from-rgb", "255,255,255", "Start values r,g,b")
	sendTimedCmd.Flags().StringVar(&sendOffRGB, "to-rgb", "0,0,0", "Stop values r,g,b")

	sendCmd.AddCommand(sendNoneCmd)

	sendCmd.AddCommand(sendSetAddrCmd)
	sendSetAddrCmd.Flags().Uint16Var(&setAddrDevice, "device", 0, "Device id to match (0 = every node)")
	sendSetAddrCmd.Flags().Uint16Var(&setAddrNew, "address", 0, "New address")
	sendSetAddrCmd.MarkFlagRequired("address")
}

var sendValueCmd = &cobra.Command{
	Use:   "value",
	Short: "Set a single-channel output level",
	RunE: func(cmd *cobra.Command, args []string) error {
		return transmit(lumen.NewValueMessage(sendDest, sendOutput, sendValueLevel))
	},
}

var sendRGBCmd = &cobra.Command{
	Use:   "rgb",
	Short: "Set a three-channel output directly",
	RunE: func(cmd *cobra.Command, args []string) error {
		vals, err := parseRGB(sendOnRGB)
		if err != nil {
			return err
		}
		return transmit(lumen.NewRGBMessage(sendDest, sendOutput, vals[0], vals[1], vals[2]))
	},
}

var sendBlinkCmd = &cobra.Command{
	Use:   "blink",
	Short: "Assign the blink program to an output",
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := parseRGB(sendOnRGB)
		if err != nil {
			return err
		}
		off, err := parseRGB(sendOffRGB)
		if err != nil {
			return err
		}
		return transmit(lumen.NewBlinkMessage(sendDest, sendOutput, sendOnPeriod, on, sendOffPeriod, off))
	},
}

var sendFadeCmd = &cobra.Command{
	Use:   "fade",
	Short: "Assign the fade program to an output",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parseRGB(sendOnRGB)
		if err != nil {
			return err
		}
		to, err := parseRGB(sendOffRGB)
		if err != nil {
			return err
		}
		var flags uint8
		if sendCycle {
			flags |= lumen.FadeFlagCycle
		}
		return transmit(lumen.NewFadeMessage(sendDest, sendOutput, sendPeriod, from, to, flags))
	},
}

var sendTimedCmd = &cobra.Command{
	Use:   "timedchange",
	Short: "Assign the timed-change program to an output",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parseRGB(sendOnRGB)
		if err != nil {
			return err
		}
		to, err := parseRGB(sendOffRGB)
		if err != nil {
			return err
		}
		return transmit(lumen.NewTimedChangeMessage(sendDest, sendOutput, sendPeriod, from, to))
	},
}

var sendNoneCmd = &cobra.Command{
	Use:   "none",
	Short: "Clear any active program on an output",
	RunE: func(cmd *cobra.Command, args []string) error {
		return transmit(lumen.NewProgramNoneMessage(sendDest, sendOutput))
	},
}

var sendSetAddrCmd = &cobra.Command{
	Use:   "setaddr",
	Short: "Change a node's bus address",
	RunE: func(cmd *cobra.Command, args []string) error {
		return transmit(lumen.NewSetAddressMessage(sendDest, setAddrDevice, setAddrNew))
	},
}

// parseRGB parses a comma-separated channel triple like "255,0,0".
func parseRGB(s string) ([3]uint8, error) {
	var out [3]uint8
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return out, fmt.Errorf("invalid channel triple %q: need r,g,b", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return out, fmt.Errorf("invalid channel value %q: %v", p, err)
		}
		out[i] = uint8(v)
	}
	return out, nil
}

// transmit opens the configured connection and writes one encoded
// message.
func transmit(m *lumen.Message) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	frame, err := lumen.Encode(m)
	if err != nil {
		return err
	}

	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Sending: %s", lumen.FormatMessage(m))

	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("send failed: %v", err)
	}
	return nil
}
