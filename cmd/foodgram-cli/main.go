package main

import "foodgram/cmd/foodgram-cli/command"

func main() {
	command.Execute()
}
