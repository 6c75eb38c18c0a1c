package main

import "fern/cmd"

func main() {
	cmd.Execute()
}
