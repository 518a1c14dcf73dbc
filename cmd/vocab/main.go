// Command vocab is a spaced-repetition vocabulary trainer.
package main

import (
	"fmt"
	"os"

	"github.com/sky-flux/vocab/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
