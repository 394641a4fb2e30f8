// Package main provides the entry point for students-cli.
//
//	students-cli create --first-name Ayesha --email ayesha@example.com
//	students-cli --output json list
package main

import (
	"fmt"
	"os"

	"github.com/aanand-mishra/student-registry/internal/client/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
