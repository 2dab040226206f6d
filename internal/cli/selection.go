package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/boorutools/bulk-tag-editor/internal/api"
	"github.com/boorutools/bulk-tag-editor/internal/bulk"
	"github.com/boorutools/bulk-tag-editor/internal/util/sanitize"
)

// selectionFlags are the ways a command can name records.
type selectionFlags struct {
	idsFile  string
	fromPage string
}

// build collects ids from positional arguments, the ids file and the listing
// page, in that order.
func (f selectionFlags) build(ctx context.Context, client *api.Client, args []string) (*bulk.Selection, error) {
	sel := bulk.NewSelection()
	for _, arg := range args {
		sel.Add(splitIDs(sanitize.Text(arg))...)
	}

	if f.idsFile != "" {
		data, err := readInput(f.idsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read ids file: %w", err)
		}
		sel.Add(splitIDs(sanitize.Text(string(data)))...)
	}

	if f.fromPage != "" {
		page, err := openPage(ctx, client, f.fromPage)
		if err != nil {
			return nil, err
		}
		defer page.Close()
		fromPage, err := bulk.SelectionFromPage(page)
		if err != nil {
			return nil, err
		}
		sel.Add(fromPage.IDs()...)
	}

	return sel, nil
}

// openPage opens a local HTML file, or fetches the path from the site when no
// such file exists.
func openPage(ctx context.Context, client *api.Client, src string) (io.ReadCloser, error) {
	if src == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	if f, err := os.Open(src); err == nil {
		return f, nil
	}
	if client == nil {
		return nil, fmt.Errorf("page %s not found locally and no site configured", src)
	}
	page, err := client.FetchPage(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing page: %w", err)
	}
	return page, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// splitIDs splits on commas and whitespace.
func splitIDs(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t' || r == '\r'
	})
}
