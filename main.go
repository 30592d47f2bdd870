package main

import "github.com/deploymenttheory/go-pff/cmd"

func main() {
	cmd.Execute()
}
