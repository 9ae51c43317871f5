package main

import cmd "github.com/YungFritz/kyys-letters/cmd/kyys"

func main() {
	cmd.Execute()
}
