package main

import (
	"fmt"
	"os"

	"opsdesk/src/console"
)

func main() {
	if err := console.Execute(); err != nil {
		if !console.Reported(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
