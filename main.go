package main

import "github.com/sqlshield/sqlshield/cmd"

func main() {
	cmd.Execute()
}
