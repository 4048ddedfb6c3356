package main

import "github.com/cmmoran/aboutgen/cmd"

func main() {
	cmd.Execute()
}
