package main

import "github.com/invoiceguard/invoiceguard/internal/cli"

func main() {
	cli.Execute()
}
