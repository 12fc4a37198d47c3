package main

import "rfid-portal/cmd"

func main() {
	cmd.Execute()
}
