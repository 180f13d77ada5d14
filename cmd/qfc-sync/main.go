package main

import "github.com/davarch/qfc-sync/cmd/qfc-sync/cli"

func main() {
	cli.Execute()
}
