package main

import "insight-engine/cmd"

func main() {
	cmd.Execute()
}
