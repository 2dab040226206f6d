package api

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FetchToken returns the security token for form submissions. It is scraped
// from the csrf-token meta tag of the record's page (or the site root when
// id is empty) and cached until InvalidateToken is called.
func (c *Client) FetchToken(ctx context.Context, id string) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	if c.token != "" {
		return c.token, nil
	}

	path := "/"
	if id != "" {
		path = c.platform.EditPath(id)
	}
	resp, err := c.doRequest(ctx, nethttp.MethodGet, path, nil, "")
	if err != nil {
		return "", fmt.Errorf("failed to fetch security token: %w", err)
	}
	defer resp.Body.Close()

	token, err := ParseToken(resp.Body)
	if err != nil {
		return "", err
	}
	c.token = token
	return token, nil
}

// InvalidateToken drops the cached token so the next submission scrapes a
// fresh one.
func (c *Client) InvalidateToken() {
	c.tokenMu.Lock()
	c.token = ""
	c.tokenMu.Unlock()
}

// ParseToken extracts the content of <meta name="csrf-token"> from an HTML
// document.
func ParseToken(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	var token string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Meta && attr(n, "name") == "csrf-token" {
			token = strings.TrimSpace(attr(n, "content"))
			return true
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if walk(child) {
				return true
			}
		}
		return false
	}
	walk(doc)

	if token == "" {
		return "", ErrTokenNotFound
	}
	return token, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
