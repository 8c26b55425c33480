package main

import "github.com/OpenTraceLab/OpenTracePinmap/cmd/pinmap/cmd"

func main() {
	cmd.Execute()
}
