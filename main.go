// The main package for the guidectl executable.
package main

import (
	"github.com/localgaid/pipeline/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
