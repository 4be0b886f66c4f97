// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package main

import (
	"fmt"
	"os"

	"github.com/lumenworks/lumenbus/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
