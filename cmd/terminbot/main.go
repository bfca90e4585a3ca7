package main

import "github.com/example/termin-bot/cmd"

func main() {
	cmd.Execute()
}
