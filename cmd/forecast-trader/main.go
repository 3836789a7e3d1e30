package main

import (
	"os"

	"github.com/rustyeddy/forecast-trader/cmd/forecast-trader/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
