package main

import (
	"os"

	"github.com/hangekinobaka/sleepy-scene-tool/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
