// © 2025 Go-Sail Authors. All rights reserved.
// Use of this source code is governed by the MIT
// license that can be found in the LICENSE file.

/*
Package site builds https://go-sail.dev, the documentation site of the Go-Sail
web framework.

# Directory Structure

Site has the following files and directories:

	site.star  Site configuration written in Starlark: title, locales,
	           navigation, search, sitemap options and the localized copy
	           of the home page. See SiteConfig.
	build      This is where the generated site will be placed by default.
	pages      All content for the site lives inside this directory, one
	           subdirectory per locale (e.g. pages/en-US). HTML and
	           Markdown formats can be used.
	static     Files in this directory will be copied verbatim to the
	           generated site.
	templates  These are the templates that wrap pages. Templates are
	           chosen on a page-by-page basis in the front matter.
	           They must have the '.html' extension. All templates share
	           one namespace, so partials (by convention prefixed with
	           '_') can be included from any of them.

Every locale is served under its own prefix, so pages/zh-CN/docs/overview.md
with the permalink /docs/overview ends up at /zh-CN/docs/overview/.

# Page Layout

Each page must be of the supported format (HTML or Markdown) and have JSON front
matter in the beginning:

	{
	  "title": "Overview",
	  "template": "layout",
	  "permalink": "/docs/overview"
	}

See Page for all available front matter fields.

# Sitemap

The sitemap starts with one entry per indexable page of the default locale
and is then expanded to every configured locale with [sitemap.Localize].
*/
package site

import (
	"bufio"
	"bytes"
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	ttemplate "text/template"
	"time"

	"github.com/go-sail/docs/internal/sitemap"

	"go.astrophena.name/base/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/feeds"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	mjson "github.com/tdewolff/minify/v2/json"
	mxml "github.com/tdewolff/minify/v2/xml"
	"golang.org/x/text/language"
	"rsc.io/markdown"
)

// Possible errors, used in tests.
var (
	errFrontmatterSplit        = errors.New("failed to split frontmatter and contents")
	errFrontmatterParse        = errors.New("failed to parse frontmatter")
	errFrontmatterMissing      = errors.New("missing frontmatter")
	errFrontmatterMissingParam = errors.New("missing required frontmatter parameter (title, template, permalink)")
	errFormatUnsupported       = errors.New("format unsupported")
	errPermalinkInvalid        = errors.New("invalid permalink")
	errPageLocale              = errors.New("page is not inside a configured locale directory")
	errPermalinkDuplicate      = errors.New("duplicate permalink")
)

// Config represents a build configuration.
type Config struct {
	// Src is the directory where to read files from. If empty, uses the current
	// directory.
	Src string
	// Dst is the directory where to write files. If empty, uses the build
	// directory.
	Dst string
	// Prod determines if the site should be built in a production mode. This
	// means that drafts are excluded and the site URL is used to derive
	// absolute URLs from relative ones.
	Prod bool
	// SkipFeed determines if the feeds for site shouldn't be built.
	SkipFeed bool
	// Site is the site configuration. If nil, it's loaded from site.star in
	// the Src directory on each build.
	Site *SiteConfig

	feedCreated time.Time // used in tests
}

func (c *Config) setDefaults() {
	if c.Src == "" {
		c.Src = filepath.Join(".")
	}

	if c.Dst == "" {
		c.Dst = filepath.Join(".", "build")
	}
}

func (c *Config) siteConfig() (*SiteConfig, error) {
	if c.Site == nil {
		return LoadConfig(filepath.Join(c.Src, ConfigFile))
	}
	c.Site.setDefaults()
	if err := c.Site.validate(); err != nil {
		return nil, err
	}
	return c.Site, nil
}

// Build builds a site based on the provided [Config].
func Build(ctx context.Context, c *Config) error {
	c.setDefaults()
	sc, err := c.siteConfig()
	if err != nil {
		return err
	}
	b, err := newBuildContext(c, sc)
	if err != nil {
		return err
	}

	// Parse templates and pages.
	if err := filepath.WalkDir(filepath.Join(b.c.Src, "templates"), b.parseTemplates); err != nil {
		return err
	}
	if err := filepath.WalkDir(filepath.Join(b.c.Src, "pages"), b.parsePages); err != nil {
		return err
	}
	if err := b.checkPermalinks(); err != nil {
		return err
	}
	// Hash static files.
	if err := filepath.WalkDir(filepath.Join(b.c.Src, "static"), b.hashStatic); err != nil {
		return err
	}

	// Sort pages by date, newest first. Pages without date are pushed to the
	// end.
	slices.SortStableFunc(b.pages, func(x, y *Page) int {
		switch {
		case x.Date == nil && y.Date == nil:
			return 0
		case x.Date == nil:
			return 1
		case y.Date == nil:
			return -1
		}
		return y.Date.Time.Compare(x.Date.Time)
	})

	// Clean up after previous build.
	if _, err := os.Stat(b.c.Dst); err == nil {
		if err := os.RemoveAll(b.c.Dst); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(b.c.Dst, 0o755); err != nil {
		return err
	}

	// Build pages and feeds.
	for _, p := range b.pages {
		if err := b.writePage(p); err != nil {
			return err
		}
	}
	if !b.c.SkipFeed {
		for _, locale := range b.site.I18n.Locales {
			if err := b.buildFeed(locale); err != nil {
				return err
			}
		}
	}

	if err := b.writeRootRedirect(); err != nil {
		return err
	}
	if err := b.buildSitemap(); err != nil {
		return err
	}
	// Write robots.txt.
	robots := robotsTxt
	if b.site.URL != "" {
		robots += "\nSitemap: " + b.site.URL + "/" + b.site.Sitemap.Filename + "\n"
	}
	if err := os.WriteFile(filepath.Join(b.c.Dst, "robots.txt"), []byte(robots), 0o644); err != nil {
		return err
	}
	// Copy static files.
	if err := filepath.WalkDir(filepath.Join(b.c.Src, "static"), b.copyStatic); err != nil {
		return err
	}

	if err := b.checkLinks(ctx); err != nil {
		return err
	}
	logger.Info(ctx, "built site",
		slog.Int("pages", len(b.pages)),
		slog.Int("locales", len(b.site.I18n.Locales)),
		slog.String("dst", b.c.Dst),
	)
	return nil
}

const robotsTxt = `User-agent: *
`

type min struct {
	m *minify.M
}

func newMin() *min {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.Add("text/html", &html.Minifier{
		KeepDocumentTags:    true,
		KeepDefaultAttrVals: true,
		KeepEndTags:         true,
	})
	m.AddFunc("application/javascript", js.Minify)
	m.AddFunc("application/json", mjson.Minify)
	m.AddFunc("application/xml", mxml.Minify)

	return &min{m: m}
}

func (m *min) Bytes(mediaType string, b []byte) ([]byte, error) {
	return m.m.Bytes(mediaType, b)
}

var serveReadyHook func() // used in tests, called when Serve started serving the site

// debouncer delays execution of a function until a specified duration has
// passed without any new events.
type debouncer struct {
	d  time.Duration
	mu sync.Mutex
	f  func()
	t  *time.Timer
}

// newDebouncer creates a new debouncer.
func newDebouncer(d time.Duration, f func()) *debouncer {
	return &debouncer{
		d: d,
		f: f,
	}
}

// Do schedules a function to be executed.
func (d *debouncer) Do() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.t != nil {
		d.t.Stop()
	}

	d.t = time.AfterFunc(d.d, d.f)
}

// Serve builds the site and starts serving it on a provided host:port.
func Serve(ctx context.Context, c *Config, addr string) error {
	c.setDefaults()

	logger.Info(ctx, "performing an initial build")
	if err := Build(ctx, c); err != nil {
		logger.Error(ctx, "initial build failed", slog.Any("err", err))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	for _, dir := range []string{
		filepath.Join(c.Src, "pages"),
		filepath.Join(c.Src, "static"),
		filepath.Join(c.Src, "templates"),
	} {
		if err := watchRecursive(watcher, dir); err != nil {
			return err
		}
	}
	if c.Site == nil {
		if err := watcher.Add(filepath.Join(c.Src, ConfigFile)); err != nil {
			return err
		}
	}

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer l.Close()
	logger.Info(ctx, "listening for HTTP requests", slog.String("addr", "http://"+l.Addr().String()))

	h := &staticHandler{fs: os.DirFS(c.Dst)}
	// Locales are only needed for redirects from the root, so a broken
	// configuration shouldn't prevent serving.
	reloadLocales := func() {
		if sc, err := c.siteConfig(); err == nil {
			h.setLocales(sc)
		}
	}
	reloadLocales()

	httpSrv := &http.Server{Handler: h}
	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(l); err != nil {
			if err != http.ErrServerClosed {
				errCh <- err
			}
		}
	}()

	rebuild := func() {
		logger.Info(ctx, "triggering build")
		if err := Build(ctx, c); err != nil {
			logger.Error(ctx, "failed to rebuild the site", slog.Any("err", err))
			return
		}
		reloadLocales()
	}
	// It's better to have a bit of delay, so that we don't start building
	// the site on each keystroke.
	debouncer := newDebouncer(250*time.Millisecond, rebuild)

	go func() {
		logger.Info(ctx, "started watching for new changes")

		for {
			select {
			case event := <-watcher.Events:
				if !shouldRebuild(event.Name, event.Op) {
					continue
				}
				logger.Info(ctx, "detected change, scheduling build",
					slog.String("name", event.Name),
					slog.Any("op", event.Op),
				)
				debouncer.Do()
			case err := <-watcher.Errors:
				logger.Error(ctx, "watcher failed", slog.Any("err", err))
			case <-ctx.Done():
				return
			}
		}
	}()

	if serveReadyHook != nil {
		serveReadyHook()
	}

	select {
	case <-ctx.Done():
		logger.Info(ctx, "gracefully shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return httpSrv.Shutdown(shutdownCtx)
}

func watchRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.Add(path)
	})
}

// Copied from
// https://github.com/brandur/modulir/blob/1ff912fdc45a79cb4d8d9f199d213ae9c3598cbd/watch.go#L201.
func shouldRebuild(path string, op fsnotify.Op) bool {
	base := filepath.Base(path)

	// Mac OS' worst mistake.
	if base == ".DS_Store" {
		return false
	}

	// Vim creates this temporary file to see whether it can write into a target
	// directory. It screws up our watching algorithm, so ignore it.
	if base == "4913" {
		return false
	}

	// A special case, but ignore creates on files that look like Vim backups.
	if strings.HasSuffix(base, "~") {
		return false
	}

	if op&fsnotify.Create != 0 {
		return true
	}

	if op&fsnotify.Remove != 0 {
		return true
	}

	if op&fsnotify.Write != 0 {
		return true
	}

	/*
		Ignore everything else. Rationale:

		* chmod: we don't really care about these as they won't affect build
		output (unless potentially we no longer can read the file, but we'll go
		down that path if it ever becomes a problem).

		* rename: will produce a following create event as well, so just listen
		for that instead.
	*/
	return false
}

// localeRouter picks locales for requests that don't name one.
type localeRouter struct {
	locales       []string
	defaultLocale string
	matcher       language.Matcher
}

// newLocaleRouter returns a router over configured locales with the default
// locale preferred on ties.
func newLocaleRouter(sc *SiteConfig) *localeRouter {
	tags := sc.Tags()
	i := slices.Index(sc.I18n.Locales, sc.I18n.DefaultLocale)
	// The first tag of a matcher is its fallback.
	if i > 0 {
		tags[0], tags[i] = tags[i], tags[0]
	}
	return &localeRouter{
		locales:       slices.Clone(sc.I18n.Locales),
		defaultLocale: sc.I18n.DefaultLocale,
		matcher:       language.NewMatcher(tags),
	}
}

type staticHandler struct {
	fs     fs.FS
	router atomic.Pointer[localeRouter] // nil until locales are known
}

// setLocales replaces the locales used for redirects and 404 pages.
func (h *staticHandler) setLocales(sc *SiteConfig) {
	h.router.Store(newLocaleRouter(sc))
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	lr := h.router.Load()
	p := r.URL.Path
	if p == "/" && lr != nil {
		http.Redirect(w, r, "/"+lr.preferredLocale(r)+"/", http.StatusFound)
		return
	}
	if p == "/" {
		p += "/index.html"
	}
	p = strings.TrimPrefix(path.Clean(p), "/")

	// Special case: /foo will serve content from foo.html, if it exists.
	if _, err := fs.Stat(h.fs, p+".html"); err == nil {
		p += ".html"
	}

	d, err := fs.Stat(h.fs, p)
	if errors.Is(err, fs.ErrNotExist) {
		h.serveNotFound(w, r, lr)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if d.IsDir() {
		p = path.Join(p, "index.html")
		d, err = fs.Stat(h.fs, p)
		if err != nil {
			h.serveNotFound(w, r, lr)
			return
		}
	}

	b, err := fs.ReadFile(h.fs, p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.ServeContent(w, r, d.Name(), d.ModTime(), bytes.NewReader(b))
}

// preferredLocale picks the locale that matches the Accept-Language header of
// r best.
func (lr *localeRouter) preferredLocale(r *http.Request) string {
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return lr.defaultLocale
	}
	_, i, conf := lr.matcher.Match(tags...)
	if conf == language.No {
		return lr.defaultLocale
	}
	// Undo the swap done by newLocaleRouter.
	di := slices.Index(lr.locales, lr.defaultLocale)
	switch i {
	case 0:
		return lr.defaultLocale
	case di:
		return lr.locales[0]
	}
	return lr.locales[i]
}

func (h *staticHandler) serveNotFound(w http.ResponseWriter, r *http.Request, lr *localeRouter) {
	var locale string
	if lr != nil {
		locale = lr.defaultLocale
		if seg, _, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/"); slices.Contains(lr.locales, seg) {
			locale = seg
		}
	}
	f, err := h.fs.Open(path.Join(locale, "404.html"))
	if errors.Is(err, fs.ErrNotExist) {
		f, err = h.fs.Open("404.html")
	}
	if errors.Is(err, fs.ErrNotExist) {
		http.NotFound(w, r)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()
	w.WriteHeader(http.StatusNotFound)
	io.Copy(w, f)
}

type buildContext struct {
	c         *Config
	site      *SiteConfig
	siteURL   *url.URL
	md        *markdown.Parser
	funcs     template.FuncMap
	pages     []*Page
	tmpl      *template.Template // all templates, so they can include each other
	templates map[string]*template.Template
	static    map[string]string // path -> hashed path (e.g. /css/main.css -> /css/main-[hash].css)
	min       *min
}

func newBuildContext(c *Config, sc *SiteConfig) (*buildContext, error) {
	b := &buildContext{
		c:    c,
		site: sc,
		md: &markdown.Parser{
			HeadingID:          true,
			Strikethrough:      true,
			TaskList:           true,
			AutoLinkText:       true,
			AutoLinkAssumeHTTP: true,
			Table:              true,
			Emoji:              true,
			SmartDot:           true,
			SmartDash:          true,
			SmartQuote:         true,
			Footnote:           true,
		},
		templates: make(map[string]*template.Template),
		static:    make(map[string]string),
		min:       newMin(),
	}
	if sc.URL != "" {
		u, err := url.Parse(sc.URL)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid url: %w", ConfigFile, err)
		}
		b.siteURL = u
	}

	b.funcs = template.FuncMap{
		"content":    func(p *Page) template.HTML { return template.HTML(p.contents) },
		"site":       func() *SiteConfig { return b.site },
		"home":       b.home,
		"alternates": b.alternates,
		"navHref":    b.navHref,
		"editURL":    b.editURL,
		"time":       b.time,
		"year":       func() int { return time.Now().Year() },
		"pages":      b.pagesByType,
		"url":        b.url,
		"localURL":   b.localURL,
		"static":     b.getStatic,
	}
	b.tmpl = template.New("").Funcs(b.funcs)

	return b, nil
}

func (b *buildContext) home(p *Page) *HomeCopy {
	return b.site.Home[p.Locale]
}

// alternate is a translation of a page.
type alternate struct {
	Locale  string
	Label   string
	URL     string
	Current bool
}

// alternates returns translations of p that exist, including p itself.
func (b *buildContext) alternates(p *Page) []alternate {
	alts := make([]alternate, 0, len(b.site.I18n.Locales))
	for _, l := range b.site.I18n.Locales {
		if !slices.ContainsFunc(b.pages, func(pp *Page) bool {
			return pp.Locale == l && pp.Permalink == p.Permalink
		}) {
			continue
		}
		alts = append(alts, alternate{
			Locale:  l,
			Label:   b.site.I18n.LocaleConfigs[l].Label,
			URL:     b.url(localizePath(l, p.Permalink)),
			Current: l == p.Locale,
		})
	}
	return alts
}

func (b *buildContext) navHref(p *Page, item NavItem) string {
	if item.Href != "" {
		return item.Href
	}
	return b.localURL(p, item.To)
}

// editURL returns the link to the source of p in the repository, or an empty
// string if edit_url is not configured.
func (b *buildContext) editURL(p *Page) (string, error) {
	if b.site.EditURL == "" {
		return "", nil
	}
	rel, err := filepath.Rel(b.c.Src, p.path)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.site.EditURL, "/") + "/" + filepath.ToSlash(rel), nil
}

func (b *buildContext) pagesByType(p *Page, typ string) []*Page {
	var pages []*Page
	for _, pp := range b.pages {
		if pp.Locale != p.Locale {
			continue
		}
		if typ == "" || pp.Type == typ {
			pages = append(pages, pp)
		}
	}
	return pages
}

func (b *buildContext) time(format string, d *date) template.HTML {
	return template.HTML(fmt.Sprintf(`<date datetime="%s">%s</date>`,
		d.Format(time.RFC3339),
		d.Format(format),
	))
}

func isFullURL(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

func (b *buildContext) url(base string) string {
	if isFullURL(base) || !b.c.Prod || b.siteURL == nil {
		return base
	}
	u := *b.siteURL
	u.Path = path.Join(u.Path, base)
	if strings.HasSuffix(base, "/") && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// localURL returns the URL of the page with permalink in the locale of p.
func (b *buildContext) localURL(p *Page, permalink string) string {
	if isFullURL(permalink) {
		return permalink
	}
	return b.url(localizePath(p.Locale, permalink))
}

// localizePath prefixes permalink with the locale and appends a trailing
// slash to directory-style permalinks.
func localizePath(locale, permalink string) string {
	p := path.Join("/", locale, permalink)
	if path.Ext(p) != ".html" {
		p += "/"
	}
	return p
}

func (b *buildContext) getStatic(base string) string {
	hashed, ok := b.static[base]
	if !ok {
		return b.url(base)
	}
	return b.url(hashed)
}

func (b *buildContext) parseTemplates(path string, d fs.DirEntry, err error) error {
	if err != nil {
		return err
	}

	if d.IsDir() {
		return nil
	}

	if filepath.Ext(path) != ".html" {
		return nil
	}

	name, err := filepath.Rel(filepath.Join(b.c.Src, "templates"), path)
	if err != nil {
		return err
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	// Ensure that we have slash-separated path everywhere.
	name = filepath.ToSlash(name)

	bb, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	b.templates[name], err = b.tmpl.New(name).Parse(string(bb))
	if err != nil {
		return err
	}

	return nil
}

func (b *buildContext) parsePages(path string, d fs.DirEntry, err error) error {
	if err != nil {
		return err
	}

	if d.IsDir() || isIgnorable(path) {
		return nil
	}

	rel, err := filepath.Rel(filepath.Join(b.c.Src, "pages"), path)
	if err != nil {
		return err
	}
	locale, _, ok := strings.Cut(filepath.ToSlash(rel), "/")
	if !ok || !slices.Contains(b.site.I18n.Locales, locale) {
		return fmt.Errorf("%s: %w", path, errPageLocale)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	p := &Page{path: path, Locale: locale}
	if err := p.parse(f); err != nil {
		return err
	}
	p.dstPath = localizeDst(locale, p.dstPath)
	if !p.Draft || !b.c.Prod {
		b.pages = append(b.pages, p)
	}

	return nil
}

// checkPermalinks ensures no two pages of the same locale are written to the
// same file.
func (b *buildContext) checkPermalinks() error {
	seen := make(map[string]string)
	for _, p := range b.pages {
		if prev, ok := seen[p.dstPath]; ok {
			return fmt.Errorf("%s: %w %q (also used by %s)", p.path, errPermalinkDuplicate, p.Permalink, prev)
		}
		seen[p.dstPath] = p.path
	}
	return nil
}

func (b *buildContext) writePage(p *Page) error {
	tpl, ok := b.templates[p.Template]
	if !ok {
		return fmt.Errorf("%s: no such template %q", p.path, p.Template)
	}

	dst := filepath.Join(b.c.Dst, filepath.FromSlash(p.dstPath))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := p.build(b, tpl, f); err != nil {
		return err
	}
	return f.Close()
}

const rootRedirect = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%[2]s</title>
<meta http-equiv="refresh" content="0; url=%[1]s">
<link rel="canonical" href="%[1]s">
</head>
<body>
<a href="%[1]s">%[2]s</a>
</body>
</html>
`

// writeRootRedirect writes index.html that points to the default locale.
func (b *buildContext) writeRootRedirect() error {
	target := b.url("/" + b.site.I18n.DefaultLocale + "/")
	s := fmt.Sprintf(rootRedirect, template.HTMLEscapeString(target), template.HTMLEscapeString(b.site.Title))
	minified, err := b.min.Bytes("text/html", []byte(s))
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(b.c.Dst, "index.html"), minified, 0o644)
}

// defaultSitemapItems returns one sitemap item per page of the default
// locale, before localization.
func (b *buildContext) defaultSitemapItems() []sitemap.Item {
	opts := b.site.Sitemap
	var items []sitemap.Item
	for _, p := range b.pages {
		if p.Locale != b.site.I18n.DefaultLocale || p.Draft || p.NoIndex {
			continue
		}
		if slices.ContainsFunc(opts.IgnorePatterns, func(pat string) bool {
			ok, _ := path.Match(pat, p.Permalink)
			return ok
		}) {
			continue
		}
		u := b.site.URL
		if p.Permalink != "/" {
			u += p.Permalink
		}
		item := sitemap.Item{
			URL:        u,
			ChangeFreq: sitemap.ChangeFreq(opts.ChangeFreq),
			Priority:   *opts.Priority,
		}
		if p.Date != nil {
			item.LastMod = p.Date.Time
		}
		items = append(items, item)
	}
	slices.SortFunc(items, func(x, y sitemap.Item) int { return cmp.Compare(x.URL, y.URL) })
	return items
}

func (b *buildContext) buildSitemap() error {
	items := sitemap.Localize(b.site.URL, b.site.I18n.Locales, b.defaultSitemapItems())

	var buf bytes.Buffer
	if err := sitemap.Write(&buf, items); err != nil {
		return err
	}
	minified, err := b.min.Bytes("application/xml", buf.Bytes())
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(b.c.Dst, b.site.Sitemap.Filename), minified, 0o644)
}

var skipHashing = []string{
	"robots.txt",
}

func (b *buildContext) hashStatic(path string, d fs.DirEntry, err error) error {
	if err != nil {
		return err
	}

	if d.IsDir() || isIgnorable(path) {
		return nil
	}

	for _, skip := range skipHashing {
		if strings.Contains(path, skip) {
			return nil
		}
	}

	rel, err := filepath.Rel(filepath.Join(b.c.Src, "static"), path)
	if err != nil {
		return err
	}
	rel = filepath.ToSlash(rel)

	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	hash := sha256.Sum256(buf)
	hashhex := hex.EncodeToString(hash[:])
	b.static["/"+rel] = "/" + formatStaticName(rel, hashhex)

	return nil
}

// formatStaticName returns a hash name that inserts hash before the filename's
// extension. If no extension exists on filename then the hash is appended.
// Returns blank string the original filename if hash is blank. Returns a blank
// string if the filename is blank.
func formatStaticName(filename, hash string) string {
	if filename == "" {
		return ""
	} else if hash == "" {
		return filename
	}

	dir, base := path.Split(filename)
	if i := strings.Index(base, "."); i != -1 {
		return path.Join(dir, fmt.Sprintf("%s-%s%s", base[:i], hash, base[i:]))
	}
	return path.Join(dir, fmt.Sprintf("%s-%s", base, hash))
}

func (b *buildContext) copyStatic(path string, d fs.DirEntry, err error) error {
	if err != nil {
		return err
	}

	if d.IsDir() || isIgnorable(path) {
		return nil
	}

	rel, err := filepath.Rel(filepath.Join(b.c.Src, "static"), path)
	if err != nil {
		return err
	}
	rel = filepath.ToSlash(rel)

	hashed, ok := b.static["/"+rel]
	if !ok {
		hashed = "/" + rel
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var mediaType string
	switch filepath.Ext(path) {
	case ".css":
		mediaType = "text/css"
	case ".js":
		mediaType = "application/javascript"
	case ".json":
		mediaType = "application/json"
	}
	if mediaType != "" {
		minified, err := b.min.Bytes(mediaType, buf)
		if err != nil {
			return err
		}
		buf = minified
	}

	dst := filepath.Join(b.c.Dst, filepath.FromSlash(hashed))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, buf, 0o644)
}

func isIgnorable(path string) bool {
	// Ignore files that look like Vim backups.
	if strings.HasSuffix(path, "~") {
		return true
	}

	// Ignore .gitignore files.
	if strings.Contains(path, ".gitignore") {
		return true
	}

	return false
}

// Page represents a site page. The exported fields is the front matter fields.
type Page struct {
	Title       string            `json:"title"`                  // title: Page title, required.
	Permalink   string            `json:"permalink"`              // permalink: Output path for the page inside its locale, required.
	Template    string            `json:"template"`               // template: Template that should be used for rendering this page, required.
	Description string            `json:"description,omitempty"`  // description: Page description for search engines and social cards, optional.
	Date        *date             `json:"date,omitempty"`         // date: Publication date in the 'year-month-day' format, e.g. 2006-01-02, optional.
	Draft       bool              `json:"draft,omitempty"`        // draft: Determines whether this page should be not included in production builds, false by default.
	NoIndex     bool              `json:"noindex,omitempty"`      // noindex: Determines whether this page should be left out of the sitemap, false by default.
	MetaTags    map[string]string `json:"meta_tags,omitempty"`    // meta_tags: Determines additional HTML meta tags that will be added to this page, optional.
	Summary     string            `json:"summary,omitempty"`      // summary: Page summary, used in Atom feed, optional.
	Type        string            `json:"type,omitempty"`         // type: Used to distinguish different kinds of pages, page by default.
	ContentOnly bool              `json:"content_only,omitempty"` // content_only: Determines whether this page should be rendered without navbar and footer, false by default.
	CSS         []string          `json:"css,omitempty"`          // css: Additional CSS files that should be loaded, optional.
	JS          []string          `json:"js,omitempty"`           // js: Additional JavaScript files that should be loaded, optional.

	// Locale is the locale of the page, taken from its directory.
	Locale string `json:"-"`

	path     string // path to the page source
	dstPath  string // where to write the built page, relative to the output directory
	contents []byte // page contents without front matter
}

type date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func (d *date) UnmarshalJSON(p []byte) error {
	s := strings.Trim(string(p), "\"")
	if s == "null" {
		d.Time = time.Time{}
		return nil
	}

	dt, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = dt

	return nil
}

func (p *Page) parse(r io.Reader) error {
	// Check that format of the page is supported.
	if !slices.Contains([]string{".html", ".md"}, filepath.Ext(p.path)) {
		return fmt.Errorf("%s: %w", p.path, errFormatUnsupported)
	}

	const (
		leftDelim  = "{\n"
		rightDelim = "}\n"
	)

	// Split the front matter and contents.
	scanner := bufio.NewScanner(r)
	var (
		frontmatter, contents []byte
		reachedFrontmatter    bool
		reachedContents       bool
	)
	for scanner.Scan() {
		line := scanner.Text() + "\n"

		if !reachedContents {
			if line == leftDelim {
				reachedFrontmatter = true
			}

			if line == rightDelim {
				reachedFrontmatter = false
				frontmatter = append(frontmatter, line...)
				reachedContents = true
				continue
			}
		}

		if reachedFrontmatter {
			frontmatter = append(frontmatter, line...)
			continue
		}

		if reachedContents {
			contents = append(contents, line...)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%s: %w: %v", p.path, errFrontmatterSplit, err)
	}
	if len(frontmatter) == 0 {
		return fmt.Errorf("%s: %w", p.path, errFrontmatterMissing)
	}
	p.contents = contents

	// Parse the front matter.
	if err := json.Unmarshal(frontmatter, p); err != nil {
		return fmt.Errorf("%s: %w: %v", p.path, errFrontmatterParse, err)
	}
	// Set the default page type.
	if p.Type == "" {
		p.Type = "page"
	}

	// Check front matter fields.
	if p.Title == "" || p.Template == "" || p.Permalink == "" {
		return fmt.Errorf("%s: %w", p.path, errFrontmatterMissingParam)
	}
	if _, err := url.ParseRequestURI(p.Permalink); err != nil {
		return fmt.Errorf("%s: %w: %v", p.path, errPermalinkInvalid, err)
	}
	p.dstPath = p.Permalink
	if !strings.HasSuffix(p.dstPath, ".html") {
		p.dstPath = path.Join(p.dstPath, "index.html")
	}
	p.dstPath = path.Clean(p.dstPath)

	return nil
}

// localizeDst places a page output path under the locale directory.
func localizeDst(locale, dstPath string) string {
	return strings.TrimPrefix(path.Join("/", locale, dstPath), "/")
}

var htmlCommentRe = regexp.MustCompile("<!--(.*?)-->")

func (p *Page) build(b *buildContext, tpl *template.Template, w io.Writer) error {
	// We use here text/template, but not html/template because we don't want to
	// escape any HTML on the Markdown source.
	ptpl, err := ttemplate.New(p.path).Funcs(ttemplate.FuncMap(b.funcs)).Parse(string(p.contents))
	if err != nil {
		return err
	}
	var pbuf bytes.Buffer
	if err = ptpl.Execute(&pbuf, p); err != nil {
		return fmt.Errorf("%s: failed to execute page template: %w", p.path, err)
	}
	p.contents = pbuf.Bytes()

	if filepath.Ext(p.path) == ".md" {
		doc := b.md.Parse(string(p.contents))
		p.contents = []byte(markdown.ToHTML(doc))
	}

	p.contents = htmlCommentRe.ReplaceAll(p.contents, []byte{})

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, p); err != nil {
		return fmt.Errorf("%s: failed to execute template %q: %w", p.path, p.Template, err)
	}

	minified, err := b.min.Bytes("text/html", buf.Bytes())
	if err != nil {
		return err
	}

	_, err = w.Write(minified)
	return err
}

func (b *buildContext) buildFeed(locale string) error {
	base := b.site.URL + "/" + locale + "/"
	feed := &feeds.Feed{
		Title:       b.site.Title,
		Link:        &feeds.Link{Href: base},
		Description: b.site.Tagline,
		Author:      &feeds.Author{Name: b.site.Title},
		Created:     time.Now(),
	}

	if !b.c.feedCreated.IsZero() {
		feed.Created = b.c.feedCreated
	}

	for _, p := range b.pages {
		if p.Type != "post" || p.Locale != locale {
			continue
		}

		if p.Draft && b.c.Prod {
			continue
		}

		item := &feeds.Item{
			Title:       p.Title,
			Link:        &feeds.Link{Href: b.site.URL + localizePath(locale, p.Permalink)},
			Author:      feed.Author,
			Description: p.Summary,
			Content:     string(p.contents),
		}
		if p.Date != nil {
			item.Created = p.Date.Time
		}
		feed.Items = append(feed.Items, item)
	}
	if len(feed.Items) == 0 {
		return nil
	}

	atom, err := feed.ToAtom()
	if err != nil {
		return err
	}
	minified, err := b.min.Bytes("application/xml", []byte(atom))
	if err != nil {
		return err
	}
	dst := filepath.Join(b.c.Dst, locale, "feed.xml")
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, minified, 0o644)
}
