package main

import (
	"os"

	"github.com/szmania/mega-manager/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
