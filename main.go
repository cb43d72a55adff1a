package main

import "github.com/appworkspm/painai/cmd"

func main() {
	cmd.Execute()
}
