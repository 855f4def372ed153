package main

import "github.com/wazecore/wazecore/cmd"

func main() {
	cmd.Execute()
}
