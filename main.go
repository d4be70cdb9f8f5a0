package main

import "github.com/notargets/dgflux/cmd"

func main() {
	cmd.Execute()
}
