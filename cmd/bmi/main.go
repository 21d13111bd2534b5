package main

import (
	"os"

	"bmi/internal/adapter/cli"
	"bmi/internal/logging"
)

func main() {
	logging.Setup()
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
