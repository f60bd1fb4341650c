package main

import "github.com/pwvkpno/pwvkpno/cmd"

func main() {
	cmd.Execute()
}
