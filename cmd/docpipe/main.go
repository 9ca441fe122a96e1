// docpipe watches document sources and rebuilds them through a script pipeline.
package main

import (
	"os"

	"github.com/hupe1980/docpipe/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
