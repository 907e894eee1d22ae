package main

import (
	"os"
)

func main() {
	err := NewRootCmd().Execute()

	// Closed here rather than in a PostRun hook: cobra skips those when
	// RunE fails, and a fatal run must still flush the store and run log.
	closeComponents()

	if err != nil {
		os.Exit(1)
	}
}
