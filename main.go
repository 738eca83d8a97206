package main

import (
	"os"

	"github.com/stephenmfriend/agent-commander/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
