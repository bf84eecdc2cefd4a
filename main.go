package main

import "github.com/fragmede/passage/internal/cli"

func main() {
	cli.Execute()
}
