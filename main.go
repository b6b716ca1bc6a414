package main

import "github.com/fbz-tec/codexport/cmd"

func main() {
	cmd.Execute()
}
