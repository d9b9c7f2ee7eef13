package main

import "peopleops/cmd/peopleopsctl/cmd"

func main() {
	cmd.Execute()
}
