package main

import "github.com/refbio/refmap/internal/cli"

func main() {
	cli.Execute()
}
