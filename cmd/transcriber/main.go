package main

import "github.com/jsayram/life-wrapped-sub005/internal/cli"

func main() {
	cli.Execute()
}
