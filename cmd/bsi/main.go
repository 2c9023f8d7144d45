package main

import "github.com/bsi-games/bsi/internal/cli"

func main() {
	cli.Execute()
}
