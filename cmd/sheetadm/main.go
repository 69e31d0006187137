package main

import "github.com/mcoot/charsheets/internal/cli"

func main() {
	cli.Execute()
}
