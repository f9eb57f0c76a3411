package main

import "carrental/internal/cli"

func main() {
	cli.Execute()
}
