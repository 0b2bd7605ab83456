package main

import (
	"os"

	"github.com/yndnr/ndaify-go/internal/cli/command"
)

func main() {
	os.Exit(command.Main(os.Args, os.Stdout, os.Stderr))
}
