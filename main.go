package main

import (
	"geohier/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
