package main

import "github.com/example/restaurant-ops/cmd"

func main() {
	cmd.Execute()
}
