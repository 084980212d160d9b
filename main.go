package main

import "roommate_go/internal/cli"

func main() {
	cli.Execute()
}
