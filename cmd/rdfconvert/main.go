package main

import (
	"os"

	"github.com/geoknoesis/rdf-formats/cmd/rdfconvert/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		os.Exit(1)
	}
}
