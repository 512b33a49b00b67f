package main

import (
	"os"

	"github.com/lumenfill/dbfill/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
