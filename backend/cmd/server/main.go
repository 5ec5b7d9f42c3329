package main

import (
	"os"

	"github.com/jacky-htg/call-console/backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
