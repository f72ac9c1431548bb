package main

import "github.com/darmiel/tokenizer/cmd"

func main() {
	cmd.Execute()
}
