package main

import (
	"os"

	"github.com/englishaidol/aidol/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
