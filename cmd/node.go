// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lumenworks/lumenbus/internal/logging"
	"github.com/lumenworks/lumenbus/internal/node"
)

var nodeConfigPath string

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Run the node firmware core",
	Long: `Run the firmware core: dispatcher and program scheduler against the
serial host bridge and the configured bus ports.

The configuration file carries the node identity (address, device id,
object type), the serial bridge and bus port devices, the control loop
tick period, and the output descriptor list. Example:

  address = 3
  device_id = 12
  object_type = 1
  serial_port = "/dev/ttyUSB0"
  bus_ports = ["/dev/ttyS1"]
  tick = "50ms"

  [[output]]
  type = "rgb"
  pins = [3, 5, 6]

Output values are logged; pin-level rendering is a hardware concern
outside this tool.`,
	RunE: runNode,
}

func init() {
	rootCmd.AddCommand(nodeCmd)
	nodeCmd.Flags().StringVarP(&nodeConfigPath, "config", "c", "node.toml", "Node configuration file")
}

func runNode(cmd *cobra.Command, args []string) error {
	log := logging.Init("node")

	cfg, err := node.LoadConfig(nodeConfigPath)
	if err != nil {
		return err
	}

	var serialTr node.Transport
	if cfg.SerialPort != "" {
		tr, err := node.OpenSerialTransport("serial", cfg.SerialPort, cfg.Baud, log)
		if err != nil {
			return fmt.Errorf("serial bridge: %w", err)
		}
		defer tr.Close()
		serialTr = tr
	}

	var buses []node.Transport
	for i, port := range cfg.BusPorts {
		tr, err := node.OpenSerialTransport(fmt.Sprintf("bus%d", i), port, cfg.Baud, log)
		if err != nil {
			return fmt.Errorf("bus port %s: %w", port, err)
		}
		defer tr.Close()
		buses = append(buses, tr)
	}

	if serialTr == nil && len(buses) == 0 {
		return fmt.Errorf("config names no serial port and no bus ports")
	}

	n := node.New(cfg, serialTr, buses, node.LogRenderer{Log: log}, node.SystemClock(), log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := n.Run(ctx); err != context.Canceled {
		return err
	}
	return nil
}
