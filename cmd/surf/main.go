package main

import "github.com/JackkySpice/surf.new/internal/cli"

func main() {
	cli.Execute()
}
