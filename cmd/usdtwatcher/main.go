package main

import "supply-alerts/internal/cli"

func main() {
	cli.Execute()
}
