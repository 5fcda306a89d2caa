package main

import "github.com/phenrril/prostore/cmd/prostore/commands"

func main() {
	commands.Execute()
}
