// © 2025 Go-Sail Authors. All rights reserved.
// Use of this source code is governed by the MIT
// license that can be found in the LICENSE file.

package sitemap

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"go.astrophena.name/base/testutil"
)

const baseURL = "https://go-sail.dev"

var locales = []string{"en-US", "zh-CN", "ja-JP"}

func TestLocalize(t *testing.T) {
	cases := map[string]struct {
		locales []string
		items   []Item
		want    []string
	}{
		"docs page": {
			locales: locales,
			items: []Item{
				{URL: baseURL + "/docs/overview", ChangeFreq: Daily, Priority: 0.5},
			},
			want: []string{
				"https://go-sail.dev/en-US/docs/overview/",
				"https://go-sail.dev/zh-CN/docs/overview/",
				"https://go-sail.dev/ja-JP/docs/overview/",
			},
		},
		"base URL": {
			locales: []string{"en-US"},
			items:   []Item{{URL: baseURL}},
			want:    []string{"https://go-sail.dev/en-US/"},
		},
		"base URL with slash": {
			locales: []string{"en-US"},
			items:   []Item{{URL: baseURL + "/"}},
			want:    []string{"https://go-sail.dev/en-US/"},
		},
		"trailing slash kept": {
			locales: []string{"zh-CN"},
			items:   []Item{{URL: baseURL + "/docs/"}},
			want:    []string{"https://go-sail.dev/zh-CN/docs/"},
		},
		"missing base URL prefix": {
			locales: []string{"ja-JP"},
			items:   []Item{{URL: "/docs/overview"}},
			want:    []string{"https://go-sail.dev/ja-JP/docs/overview/"},
		},
		"multiple items": {
			locales: []string{"en-US", "zh-CN"},
			items: []Item{
				{URL: baseURL + "/a"},
				{URL: baseURL + "/b"},
			},
			want: []string{
				"https://go-sail.dev/en-US/a/",
				"https://go-sail.dev/zh-CN/a/",
				"https://go-sail.dev/en-US/b/",
				"https://go-sail.dev/zh-CN/b/",
			},
		},
		"no locales": {
			locales: nil,
			items: []Item{
				{URL: baseURL + "/a"},
				{URL: baseURL + "/b"},
			},
		},
		"no items": {
			locales: locales,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := Localize(baseURL, tc.locales, tc.items)
			testutil.AssertEqual(t, len(got), len(tc.items)*len(tc.locales))
			testutil.AssertEqual(t, len(got), len(tc.want))
			for i, item := range got {
				testutil.AssertEqual(t, item.URL, tc.want[i])
				testutil.AssertEqual(t, item.ChangeFreq, Weekly)
				testutil.AssertEqual(t, item.Priority, 0.9)
			}
		})
	}
}

func TestLocalizeProperties(t *testing.T) {
	lastMod := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	items := []Item{
		{URL: baseURL, ChangeFreq: Never, Priority: 0.1},
		{URL: baseURL + "/docs/overview", ChangeFreq: Daily, Priority: 0.5, LastMod: lastMod},
		{URL: baseURL + "/docs/getting-started/", ChangeFreq: Monthly, Priority: 1},
		{URL: baseURL + "/blog/2025/release", ChangeFreq: Hourly},
	}
	orig := make([]Item, len(items))
	copy(orig, items)

	got := Localize(baseURL, locales, items)
	testutil.AssertEqual(t, len(got), len(items)*len(locales))

	for _, item := range got {
		if !strings.HasSuffix(item.URL, "/") {
			t.Errorf("%q: want trailing slash", item.URL)
		}
		rest, ok := strings.CutPrefix(item.URL, baseURL+"/")
		if !ok {
			t.Errorf("%q: want base URL prefix", item.URL)
			continue
		}
		segment, _, _ := strings.Cut(rest, "/")
		var known bool
		for _, l := range locales {
			if segment == l {
				known = true
			}
		}
		if !known {
			t.Errorf("%q: first path segment %q is not a configured locale", item.URL, segment)
		}
		if strings.Contains(rest, "//") {
			t.Errorf("%q: double slash", item.URL)
		}
		testutil.AssertEqual(t, item.ChangeFreq, LocalizedChangeFreq)
		testutil.AssertEqual(t, item.Priority, LocalizedPriority)
	}

	// Last modification time is carried over.
	for _, item := range got[len(locales) : 2*len(locales)] {
		testutil.AssertEqual(t, item.LastMod, lastMod)
	}

	// Input is left untouched.
	for i := range items {
		testutil.AssertEqual(t, items[i], orig[i])
	}
}

func TestWrite(t *testing.T) {
	items := Localize(baseURL, []string{"en-US", "zh-CN"}, []Item{
		{URL: baseURL + "/docs/overview", LastMod: time.Date(2025, time.January, 2, 15, 0, 0, 0, time.UTC)},
		{URL: baseURL},
	})

	var buf bytes.Buffer
	if err := Write(&buf, items); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Fatalf("missing XML declaration:\n%s", buf.String())
	}

	var got struct {
		XMLName xml.Name `xml:"urlset"`
		Xmlns   string   `xml:"xmlns,attr"`
		URLs    []struct {
			Loc        string `xml:"loc"`
			LastMod    string `xml:"lastmod"`
			ChangeFreq string `xml:"changefreq"`
			Priority   string `xml:"priority"`
		} `xml:"url"`
	}
	if err := xml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, got.Xmlns, "http://www.sitemaps.org/schemas/sitemap/0.9")
	testutil.AssertEqual(t, len(got.URLs), 4)
	testutil.AssertEqual(t, got.URLs[0].Loc, "https://go-sail.dev/en-US/docs/overview/")
	testutil.AssertEqual(t, got.URLs[0].LastMod, "2025-01-02")
	testutil.AssertEqual(t, got.URLs[3].Loc, "https://go-sail.dev/zh-CN/")
	testutil.AssertEqual(t, got.URLs[3].LastMod, "")
	for _, u := range got.URLs {
		testutil.AssertEqual(t, u.ChangeFreq, "weekly")
		testutil.AssertEqual(t, u.Priority, "0.9")
	}
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<url>") {
		t.Fatalf("want no entries, got:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "urlset") {
		t.Fatalf("want urlset element, got:\n%s", buf.String())
	}
}
