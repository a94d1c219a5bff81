package main

import "github.com/ermos/audiosweep/cmd/audiosweep/commands"

func main() {
	commands.Execute()
}
