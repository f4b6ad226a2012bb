// © 2025 Go-Sail Authors. All rights reserved.
// Use of this source code is governed by the MIT
// license that can be found in the LICENSE file.

package site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"

	"go.astrophena.name/base/logger"

	"github.com/PuerkitoBio/goquery"
)

var errBrokenLink = errors.New("broken link")

// brokenLink is a site-relative link that points to a file missing from the
// build output.
type brokenLink struct {
	page   string // slash-separated path of the page relative to the output directory
	target string // link as it appears in the page
}

func (l brokenLink) Error() string {
	return fmt.Sprintf("%s: %v %q", l.page, errBrokenLink, l.target)
}

func (l brokenLink) Unwrap() error { return errBrokenLink }

// linkAttrs lists elements and their attributes that reference other files.
var linkAttrs = []struct{ selector, attr string }{
	{"a[href]", "href"},
	{"link[href]", "href"},
	{"img[src]", "src"},
	{"script[src]", "src"},
}

// checkLinks walks over all HTML files in the output directory and reports
// links to files that don't exist, according to the on_broken_links policy.
func (b *buildContext) checkLinks(ctx context.Context) error {
	if b.site.OnBrokenLinks == BrokenLinksIgnore {
		return nil
	}

	dst := os.DirFS(b.c.Dst)
	broken, err := findBrokenLinks(dst, b.site.URL)
	if err != nil {
		return err
	}
	if len(broken) == 0 {
		return nil
	}

	if b.site.OnBrokenLinks == BrokenLinksWarn {
		for _, l := range broken {
			logger.Info(ctx, "found broken link",
				slog.String("page", l.page),
				slog.String("target", l.target),
			)
		}
		return nil
	}

	errs := make([]error, 0, len(broken))
	for _, l := range broken {
		errs = append(errs, l)
	}
	return errors.Join(errs...)
}

func findBrokenLinks(fsys fs.FS, siteURL string) ([]brokenLink, error) {
	var broken []brokenLink
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".html" {
			return nil
		}

		f, err := fsys.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()

		doc, err := goquery.NewDocumentFromReader(f)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}

		var targets []string
		for _, la := range linkAttrs {
			doc.Find(la.selector).Each(func(_ int, s *goquery.Selection) {
				if v, ok := s.Attr(la.attr); ok {
					targets = append(targets, v)
				}
			})
		}
		slices.Sort(targets)
		targets = slices.Compact(targets)

		for _, target := range targets {
			local, ok := localPath(target, siteURL)
			if !ok {
				continue
			}
			if !exists(fsys, local) {
				broken = append(broken, brokenLink{page: p, target: target})
			}
		}
		return nil
	})
	return broken, err
}

// localPath returns the path of a link target inside the output directory,
// or false if the target points elsewhere.
func localPath(target, siteURL string) (string, bool) {
	if siteURL != "" {
		if rest, ok := strings.CutPrefix(target, siteURL); ok && (rest == "" || strings.HasPrefix(rest, "/")) {
			target = rest
			if target == "" {
				target = "/"
			}
		}
	}
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "", false
	}
	if i := strings.IndexAny(target, "?#"); i != -1 {
		target = target[:i]
	}
	return strings.TrimPrefix(path.Clean(target), "/"), true
}

// exists reports whether p resolves to a file the same way the static file
// server does: p itself, p.html, or p/index.html.
func exists(fsys fs.FS, p string) bool {
	if p == "" {
		p = "."
	}
	for _, candidate := range []string{p, p + ".html", path.Join(p, "index.html")} {
		fi, err := fs.Stat(fsys, candidate)
		if err == nil && !fi.IsDir() {
			return true
		}
	}
	return false
}
