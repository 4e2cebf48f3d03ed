package main

import "github.com/gerunddev/cardbridge/internal/commands"

func main() {
	commands.Execute()
}
