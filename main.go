package main

import (
	"os"

	"github.com/bundlescan/bundlescan/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
