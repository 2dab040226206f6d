// bulk-tag-editor adds and removes tags on many booru records at once.
//
// Build with:
//
//	go build -ldflags "-X github.com/boorutools/bulk-tag-editor/internal/version.Version=v0.3.0" ./cmd/bulk-tag-editor
package main

import (
	"os"

	"github.com/boorutools/bulk-tag-editor/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
