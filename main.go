package main

import "daylog-backend/cmd"

func main() {
	cmd.Run()
}
