package main

import "github.com/urbanwind/nestcfd/cmd"

func main() {
	cmd.Execute()
}
