package main

import "github.com/kamusis/docidx/cmd"

func main() {
	cmd.Execute()
}
