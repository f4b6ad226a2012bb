// © 2025 Go-Sail Authors. All rights reserved.
// Use of this source code is governed by the MIT
// license that can be found in the LICENSE file.

// Package sitemap builds sitemaps.org documents for a multi-locale site.
package sitemap

import (
	"encoding/xml"
	"io"
	"strings"
	"time"
)

// ChangeFreq is an advisory hint how often a page is likely to change.
type ChangeFreq string

// Possible values of ChangeFreq.
const (
	Always  ChangeFreq = "always"
	Hourly  ChangeFreq = "hourly"
	Daily   ChangeFreq = "daily"
	Weekly  ChangeFreq = "weekly"
	Monthly ChangeFreq = "monthly"
	Yearly  ChangeFreq = "yearly"
	Never   ChangeFreq = "never"
)

// Values that Localize assigns to every produced item, regardless of what the
// default items carried.
const (
	LocalizedChangeFreq = Weekly
	LocalizedPriority   = 0.9
)

// Item is a single sitemap entry.
type Item struct {
	URL        string     // absolute URL of the page
	ChangeFreq ChangeFreq // crawl hint
	Priority   float64    // crawl weight in [0, 1]
	LastMod    time.Time  // zero means unknown
}

// Localize expands each of the default items into one item per locale,
// inserting the locale as the first path segment after baseURL and
// guaranteeing a trailing slash.
//
// Items whose URL does not start with baseURL are concatenated as is.
// The returned slice is always freshly allocated; items is not modified.
func Localize(baseURL string, locales []string, items []Item) []Item {
	out := make([]Item, 0, len(items)*len(locales))
	for _, item := range items {
		path := strings.Replace(item.URL, baseURL, "", 1)
		for _, locale := range locales {
			u := baseURL + "/" + locale + path
			if !strings.HasSuffix(u, "/") {
				u += "/"
			}
			out = append(out, Item{
				URL:        u,
				ChangeFreq: LocalizedChangeFreq,
				Priority:   LocalizedPriority,
				LastMod:    item.LastMod,
			})
		}
	}
	return out
}

const (
	xmlns         = "http://www.sitemaps.org/schemas/sitemap/0.9"
	lastModLayout = "2006-01-02"
)

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []url    `xml:"url"`
}

type url struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   float64    `xml:"priority"`
}

// Write writes items to w as a sitemap document, preserving their order.
func Write(w io.Writer, items []Item) error {
	set := urlset{
		Xmlns: xmlns,
		URLs:  make([]url, 0, len(items)),
	}
	for _, item := range items {
		u := url{
			Loc:        item.URL,
			ChangeFreq: item.ChangeFreq,
			Priority:   item.Priority,
		}
		if !item.LastMod.IsZero() {
			u.LastMod = item.LastMod.Format(lastModLayout)
		}
		set.URLs = append(set.URLs, u)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
