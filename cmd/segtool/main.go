package main

import (
	"fmt"
	"os"

	"github.com/downfa11-org/logseg/cmd/segtool/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
