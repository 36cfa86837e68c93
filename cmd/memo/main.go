package main

import (
	"os"

	"github.com/gjnave/memo-for-windows/cmd/memo/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
