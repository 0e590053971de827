package main

import "github.com/eraiza0816/assistant-discord/cmd"

func main() {
	cmd.Execute()
}
