package main

import "github.com/agoravoting/election-orchestra/cmd"

func main() {
	cmd.Execute()
}
