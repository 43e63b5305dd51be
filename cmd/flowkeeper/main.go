package main

import (
	"os"

	"github.com/solatis/flowkeeper/cmd/flowkeeper/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
