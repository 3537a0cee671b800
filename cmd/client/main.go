package main

import "attendsync/cmd/client/cmd"

func main() {
	cmd.Execute()
}
