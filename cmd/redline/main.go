package main

import "redline/cmd/redline/cmd"

func main() {
	cmd.Execute()
}
