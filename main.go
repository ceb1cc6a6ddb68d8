// Package main is the entry point for the casinolog CLI, which rebuilds
// casino events from Minecraft client logs and reports gambling statistics.
package main

import "github.com/pable/casinolog/cmd"

func main() {
	cmd.Execute()
}
