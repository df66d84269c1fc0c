package main

import (
	"os"

	"github.com/theokoles7/parcus/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
