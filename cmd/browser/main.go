// Command browser runs the snapshot-aware S3 object store version browser.
package main

import (
	"fmt"
	"os"

	"github.com/snapvault/browser/cmd/browser/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
