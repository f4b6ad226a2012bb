// © 2025 Go-Sail Authors. All rights reserved.
// Use of this source code is governed by the MIT
// license that can be found in the LICENSE file.

package site

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"slices"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"golang.org/x/text/language"
)

// ConfigFile is the name of the site configuration file, relative to the
// source directory.
const ConfigFile = "site.star"

// Possible configuration errors, used in tests.
var (
	errConfigExec           = errors.New("failed to execute configuration")
	errConfigValue          = errors.New("unsupported configuration value")
	errNoLocales            = errors.New("no locales configured")
	errLocaleInvalid        = errors.New("invalid locale")
	errLocaleDuplicate      = errors.New("duplicate locale")
	errDefaultLocale        = errors.New("default locale is not one of the configured locales")
	errOnBrokenLinks        = errors.New("on_broken_links must be one of throw, warn or ignore")
	errHomeMissing          = errors.New("missing home page copy for locale")
	errSitemapPriority      = errors.New("sitemap priority must be between 0 and 1")
	errSitemapIgnorePattern = errors.New("invalid sitemap ignore pattern")
	errSiteURL              = errors.New("url must be an absolute http or https URL")
	errEditURL              = errors.New("edit_url must be an absolute http or https URL")
)

// BrokenLinks determines what happens when a built page links to a missing
// file.
type BrokenLinks string

// Available values of BrokenLinks.
const (
	BrokenLinksThrow  BrokenLinks = "throw"
	BrokenLinksWarn   BrokenLinks = "warn"
	BrokenLinksIgnore BrokenLinks = "ignore"
)

// SiteConfig is the declarative configuration of the site, read from
// site.star.
type SiteConfig struct {
	Title         string               `json:"title"`
	Tagline       string               `json:"tagline"`
	URL           string               `json:"url"`
	Favicon       string               `json:"favicon"`
	EditURL       string               `json:"edit_url"`
	OnBrokenLinks BrokenLinks          `json:"on_broken_links"`
	I18n          I18n                 `json:"i18n"`
	Navbar        Navbar               `json:"navbar"`
	Footer        Footer               `json:"footer"`
	Algolia       *Algolia             `json:"algolia"`
	Sitemap       SitemapOptions       `json:"sitemap"`
	Home          map[string]*HomeCopy `json:"home"`
}

// I18n lists the supported locales.
type I18n struct {
	DefaultLocale string                   `json:"default_locale"`
	Locales       []string                 `json:"locales"`
	LocaleConfigs map[string]*LocaleConfig `json:"locale_configs"`
}

// LocaleConfig is the display metadata of a locale.
type LocaleConfig struct {
	Label     string `json:"label"`
	Direction string `json:"direction"`
}

// Navbar is the top navigation bar.
type Navbar struct {
	Title string    `json:"title"`
	Logo  Logo      `json:"logo"`
	Items []NavItem `json:"items"`
}

// Logo is an image shown in the navbar.
type Logo struct {
	Alt string `json:"alt"`
	Src string `json:"src"`
}

// NavItem is a link. To is a site-relative path that gets localized, Href is
// used verbatim.
type NavItem struct {
	Label     string `json:"label"`
	To        string `json:"to"`
	Href      string `json:"href"`
	Position  string `json:"position"`
	ClassName string `json:"class_name"`
	AriaLabel string `json:"aria_label"`
}

// Footer is the page footer.
type Footer struct {
	Style     string        `json:"style"`
	Links     []FooterLinks `json:"links"`
	Copyright string        `json:"copyright"`
}

// FooterLinks is a titled column of footer links.
type FooterLinks struct {
	Title string    `json:"title"`
	Items []NavItem `json:"items"`
}

// Algolia configures DocSearch.
type Algolia struct {
	AppID            string `json:"app_id"`
	APIKey           string `json:"api_key"`
	IndexName        string `json:"index_name"`
	ContextualSearch bool   `json:"contextual_search"`
}

// SitemapOptions configures the default sitemap items.
type SitemapOptions struct {
	Filename       string   `json:"filename"`
	ChangeFreq     string   `json:"changefreq"`
	Priority       *float64 `json:"priority"`
	IgnorePatterns []string `json:"ignore_patterns"`
}

// HomeCopy is the localized copy of the home page.
type HomeCopy struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Subtitle    string    `json:"subtitle"`
	CTA         string    `json:"cta"`
	Features    []Feature `json:"features"`
}

// Feature is a single card of the home page feature list.
type Feature struct {
	Title       string `json:"title"`
	Image       string `json:"image"`
	Description string `json:"description"`
}

// LoadConfig reads and validates the site configuration from a Starlark file.
func LoadConfig(filename string) (*SiteConfig, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return parseConfig(filename, src)
}

func parseConfig(filename string, src []byte) (*SiteConfig, error) {
	thread := &starlark.Thread{Name: filename}
	globals, err := starlark.ExecFileOptions(
		&syntax.FileOptions{
			While:           true,
			TopLevelControl: true,
		},
		thread,
		filename,
		src,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", filename, errConfigExec, err)
	}

	raw := make(map[string]any, len(globals))
	for _, name := range globals.Keys() {
		// Private helpers are not part of the configuration.
		if strings.HasPrefix(name, "_") {
			continue
		}
		v, err := fromStarlark(globals[name])
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", filename, name, err)
		}
		raw[name] = v
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	sc := new(SiteConfig)
	if err := json.Unmarshal(b, sc); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", filename, errConfigValue, err)
	}
	sc.setDefaults()
	if err := sc.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return sc, nil
}

// fromStarlark converts a Starlark value into a value that can be marshaled
// to JSON.
func fromStarlark(v starlark.Value) (any, error) {
	switch v := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(v), nil
	case starlark.String:
		return string(v), nil
	case starlark.Int:
		i, ok := v.Int64()
		if !ok {
			return nil, fmt.Errorf("%w: integer %s out of range", errConfigValue, v)
		}
		return i, nil
	case starlark.Float:
		return float64(v), nil
	case *starlark.List:
		return fromIterable(v)
	case starlark.Tuple:
		return fromIterable(v)
	case *starlark.Dict:
		m := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			k, ok := starlark.AsString(item[0])
			if !ok {
				return nil, fmt.Errorf("%w: dict key %s is not a string", errConfigValue, item[0])
			}
			val, err := fromStarlark(item[1])
			if err != nil {
				return nil, err
			}
			m[k] = val
		}
		return m, nil
	}
	return nil, fmt.Errorf("%w: %s", errConfigValue, v.Type())
}

func fromIterable(it starlark.Iterable) ([]any, error) {
	var (
		list []any
		x    starlark.Value
	)
	iter := it.Iterate()
	defer iter.Done()
	for iter.Next(&x) {
		v, err := fromStarlark(x)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, nil
}

const defaultSitemapPriority = 0.5

func (sc *SiteConfig) setDefaults() {
	sc.URL = strings.TrimSuffix(sc.URL, "/")
	if sc.OnBrokenLinks == "" {
		sc.OnBrokenLinks = BrokenLinksThrow
	}
	if sc.I18n.DefaultLocale == "" && len(sc.I18n.Locales) > 0 {
		sc.I18n.DefaultLocale = sc.I18n.Locales[0]
	}
	if sc.I18n.LocaleConfigs == nil {
		sc.I18n.LocaleConfigs = make(map[string]*LocaleConfig)
	}
	for _, l := range sc.I18n.Locales {
		lc, ok := sc.I18n.LocaleConfigs[l]
		if !ok || lc == nil {
			lc = &LocaleConfig{}
			sc.I18n.LocaleConfigs[l] = lc
		}
		if lc.Label == "" {
			lc.Label = l
		}
		if lc.Direction == "" {
			lc.Direction = "ltr"
		}
	}
	if sc.Sitemap.Filename == "" {
		sc.Sitemap.Filename = "sitemap.xml"
	}
	if sc.Sitemap.ChangeFreq == "" {
		sc.Sitemap.ChangeFreq = "weekly"
	}
	if sc.Sitemap.Priority == nil {
		p := defaultSitemapPriority
		sc.Sitemap.Priority = &p
	}
}

func (sc *SiteConfig) validate() error {
	if len(sc.I18n.Locales) == 0 {
		return errNoLocales
	}
	seen := make(map[string]bool)
	for _, l := range sc.I18n.Locales {
		if _, err := language.Parse(l); err != nil {
			return fmt.Errorf("%w %q: %v", errLocaleInvalid, l, err)
		}
		if seen[l] {
			return fmt.Errorf("%w %q", errLocaleDuplicate, l)
		}
		seen[l] = true
		if sc.Home[l] == nil {
			return fmt.Errorf("%w %q", errHomeMissing, l)
		}
	}
	if !slices.Contains(sc.I18n.Locales, sc.I18n.DefaultLocale) {
		return fmt.Errorf("%w: %q", errDefaultLocale, sc.I18n.DefaultLocale)
	}
	switch sc.OnBrokenLinks {
	case BrokenLinksThrow, BrokenLinksWarn, BrokenLinksIgnore:
	default:
		return fmt.Errorf("%w, got %q", errOnBrokenLinks, sc.OnBrokenLinks)
	}
	if p := *sc.Sitemap.Priority; p < 0 || p > 1 {
		return fmt.Errorf("%w, got %v", errSitemapPriority, p)
	}
	for _, pat := range sc.Sitemap.IgnorePatterns {
		if _, err := path.Match(pat, ""); err != nil {
			return fmt.Errorf("%w %q: %v", errSitemapIgnorePattern, pat, err)
		}
	}
	if !isAbsURL(sc.URL) {
		return fmt.Errorf("%w, got %q", errSiteURL, sc.URL)
	}
	if sc.EditURL != "" && !isAbsURL(sc.EditURL) {
		return fmt.Errorf("%w, got %q", errEditURL, sc.EditURL)
	}
	return nil
}

func isAbsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Tags returns the parsed language tags of configured locales, in the same
// order as the locales.
func (sc *SiteConfig) Tags() []language.Tag {
	tags := make([]language.Tag, 0, len(sc.I18n.Locales))
	for _, l := range sc.I18n.Locales {
		tags = append(tags, language.Make(l))
	}
	return tags
}
