/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/skulddb/cmd/skuld/cmd"
)

func main() {
	cmd.Execute()
}
