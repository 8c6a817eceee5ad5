package main

import (
	"fmt"
	"os"

	"github.com/goliatone/go-predictform/internal/cli"
	"github.com/goliatone/go-predictform/internal/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
