package main

import "github.com/KaramelBytes/dsdash/cmd"

func main() {
	cmd.Execute()
}
