package main

import "github.com/rotblauer/trackplay/cmd"

func main() {
	cmd.Execute()
}
