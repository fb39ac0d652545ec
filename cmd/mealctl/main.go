package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand(defaultEnvironment()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mealctl:", err)
		os.Exit(1)
	}
}
