package main

import "dmt/cmd/dmt/cmd"

func main() {
	cmd.Execute()
}
