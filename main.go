package main

import "github.com/kamal-hamza/px-cli/cmd"

func main() {
	cmd.Execute()
}
