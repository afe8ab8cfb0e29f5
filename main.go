package main

import "github.com/brogergvhs/tululu/cmd"

func main() {
	cmd.Execute()
}
