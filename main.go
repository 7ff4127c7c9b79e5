package main

import "github.com/lorekeep/lorekeep/cmd"

func main() {
	cmd.Execute()
}
