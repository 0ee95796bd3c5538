package main

import "repoindex/internal/cli"

func main() {
	cli.Execute()
}
