package main

import "github.com/civicaid-labs/civicaid/cmd"

func main() {
	cmd.Execute()
}
