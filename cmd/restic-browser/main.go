package main

import (
	"os"

	"restic-browser/src/cli"
)

func main() {
	os.Exit(cli.Execute())
}
