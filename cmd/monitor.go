// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumenworks/lumenbus/pkg/lumen"
)

var (
	monitorUseTUI        bool
	monitorStatsInterval int
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Decode and display bus traffic",
	Long: `Continuously decode and display bus messages as they arrive.

Each message is shown with its type, destination, flags and decoded
payload. Periodic statistics summarize message and error rates. With
--tui a live dashboard replaces the scrolling log.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorUseTUI, "tui", false, "Use the live dashboard")
	monitorCmd.Flags().IntVar(&monitorStatsInterval, "stats-interval", 10, "Statistics summary interval (seconds)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	if monitorUseTUI {
		return runMonitorTUI(conn, connInfo)
	}

	fmt.Printf("Lumenbus - Traffic Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	stats := lumen.NewStatistics()
	acc := lumen.NewAccumulator()
	buf := make([]byte, 128)
	lastStats := time.Now()

	for {
		n, err := conn.Read(buf)
		if err != nil {
			// For WebSocket connections, a read error usually means
			// the connection is permanently closed - exit gracefully
			if err == ErrConnectionClosed {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}

		for i := 0; i < n; i++ {
			frame, err := acc.Feed(buf[i])
			if err != nil {
				fmt.Printf("[ERROR] %v\n", err)
				continue
			}
			if frame == nil {
				continue
			}

			m, err := lumen.Decode(frame)
			stats.Update(m, err)
			if err != nil {
				fmt.Printf("[ERROR] %v\n", err)
				continue
			}
			fmt.Printf("[%s] %s", time.Now().Format("15:04:05.000"), lumen.FormatMessage(m))
		}

		if time.Since(lastStats) >= time.Duration(monitorStatsInterval)*time.Second {
			fmt.Printf("\n%s\n", stats.String())
			lastStats = time.Now()
		}
	}
}
