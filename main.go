package main

import "github.com/tapline/touchbet/cmd"

func main() {
	cmd.Execute()
}
