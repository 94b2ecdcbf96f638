package main

import "github.com/Professor414/Text2PDF/cmd"

func main() {
	cmd.Execute()
}
