// Command sellerctl runs the keyword and listing pipelines offline.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errBlockingIssues) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
