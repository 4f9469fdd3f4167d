package main

import "github.com/habiliai/oursgpt/cmd/oursgpt/cmd"

func main() {
	cmd.Execute()
}
