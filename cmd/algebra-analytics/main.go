package main

import "github.com/streamingfast/algebra-analytics/cmd/algebra-analytics/cli"

func main() {
	cli.Main()
}
