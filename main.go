package main

import "github.com/milldesk/milldesk/cmd"

func main() {
	cmd.Execute()
}
