// Command goklab decodes, encodes and builds k.LAB geometries and runs
// observations against an engine.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
