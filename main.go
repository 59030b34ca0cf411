package main

import "shireesh.com/stackgen/cmd"

func main() {
	cmd.Execute()
}
