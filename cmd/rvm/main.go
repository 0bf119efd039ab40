package main

import "github.com/keegananderson/rvm32/cmd/rvm/cmd"

func main() {
	cmd.Execute()
}
