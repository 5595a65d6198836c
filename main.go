package main

import "github.com/next-trace/scg-mdb-client/cmd"

func main() {
	cmd.Execute()
}
