package main

import "travel-partner-backend/cmd"

func main() {
	cmd.Run()
}
