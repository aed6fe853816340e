package main

import "github.com/khanhnv2901/site-inspector/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}
