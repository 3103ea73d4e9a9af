package main

import (
	"os"

	"github.com/OFFIS-RIT/sysmlfuse/cmd/sysmlfuse/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
