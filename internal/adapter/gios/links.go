package gios

import (
	"fmt"
	"io"
	"path"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// Link is an anchor found on the archive page.
type Link struct {
	Href string
	Text string
}

// ParseLinks returns every anchor with an href, in document order. Link
// text is whitespace-collapsed.
func ParseLinks(r io.Reader) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse archive page: %w", err)
	}

	var links []Link
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href, ok := attr(n, "href"); ok {
				links = append(links, Link{Href: href, Text: strings.Join(strings.Fields(text(n)), " ")})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

// FindArchiveID returns the download id of the yearly measurement archive,
// the last path segment of a downloadFile link whose text names the year.
func FindArchiveID(links []Link, year int) (string, error) {
	want := strconv.Itoa(year)
	for _, l := range links {
		if !isDownload(l) || isMetadata(l) {
			continue
		}
		if slices.Contains(numbers(l.Text), want) {
			return path.Base(strings.TrimRight(l.Href, "/")), nil
		}
	}
	return "", fmt.Errorf("year %d: %w", year, ErrArchiveNotFound)
}

// FindMetadata returns the first download link whose text mentions metadata.
func FindMetadata(links []Link) (Link, error) {
	for _, l := range links {
		if isDownload(l) && isMetadata(l) {
			return l, nil
		}
	}
	return Link{}, ErrMetadataNotFound
}

// numbers splits s into its runs of digits.
func numbers(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
}

func isDownload(l Link) bool { return strings.Contains(l.Href, downloadMarker) }

func isMetadata(l Link) bool { return strings.Contains(strings.ToLower(l.Text), "meta") }

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func text(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(text(c))
		b.WriteByte(' ')
	}
	return b.String()
}
