package main

import "github.com/mvp-joe/carve/internal/cli"

func main() {
	cli.Execute()
}
