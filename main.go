package main

import "github.com/facilita/notifier/cmd"

func main() {
	cmd.Execute()
}
