// © 2025 Go-Sail Authors. All rights reserved.
// Use of this source code is governed by the MIT
// license that can be found in the LICENSE file.

package site

import (
	"errors"
	"testing"

	"go.astrophena.name/base/testutil"
)

func TestLoadConfig(t *testing.T) {
	sc, err := LoadConfig("../../" + ConfigFile)
	if err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, sc.Title, "Go-Sail")
	testutil.AssertEqual(t, sc.URL, "https://go-sail.dev")
	testutil.AssertEqual(t, sc.I18n.DefaultLocale, "en-US")
	testutil.AssertEqual(t, len(sc.I18n.Locales), 3)
	testutil.AssertEqual(t, sc.I18n.LocaleConfigs["zh-CN"].Label, "简体中文")
	testutil.AssertEqual(t, sc.OnBrokenLinks, BrokenLinksThrow)
	testutil.AssertEqual(t, sc.Algolia.IndexName, "go_sail_dev_ej7onrkd8y_pages")
	testutil.AssertEqual(t, sc.Sitemap.Filename, "sitemap.xml")
	testutil.AssertEqual(t, sc.EditURL, "https://github.com/go-sail/docs/edit/main/")
	for _, l := range sc.I18n.Locales {
		testutil.AssertEqual(t, len(sc.Home[l].Features), 3)
	}
}

func TestParseConfig(t *testing.T) {
	cases := map[string]struct {
		src     string
		wantErr error
		check   func(t *testing.T, sc *SiteConfig)
	}{
		"defaults": {
			src: `
url = "https://example.com/"
i18n = {"locales": ["en-US", "ja-JP"]}
home = {"en-US": {}, "ja-JP": {}}
`,
			check: func(t *testing.T, sc *SiteConfig) {
				testutil.AssertEqual(t, sc.URL, "https://example.com")
				testutil.AssertEqual(t, sc.I18n.DefaultLocale, "en-US")
				testutil.AssertEqual(t, sc.I18n.LocaleConfigs["ja-JP"].Label, "ja-JP")
				testutil.AssertEqual(t, sc.I18n.LocaleConfigs["ja-JP"].Direction, "ltr")
				testutil.AssertEqual(t, sc.OnBrokenLinks, BrokenLinksThrow)
				testutil.AssertEqual(t, sc.Sitemap.Filename, "sitemap.xml")
				testutil.AssertEqual(t, sc.Sitemap.ChangeFreq, "weekly")
				testutil.AssertEqual(t, *sc.Sitemap.Priority, 0.5)
				if sc.Algolia != nil {
					t.Errorf("want no Algolia configuration, got %+v", sc.Algolia)
				}
			},
		},
		"helpers": {
			src: `
url = "https://example.com"
edit_url = "https://github.com/example/docs/edit/main/"
_locales = ["en-US", "zh-CN"]

def _home(subtitle):
    return {"subtitle": subtitle, "features": [{"title": str(i)} for i in range(3)]}

i18n = {"default_locale": "zh-CN", "locales": _locales}
home = {l: _home("hi " + l) for l in _locales}
sitemap = {"priority": 1}
`,
			check: func(t *testing.T, sc *SiteConfig) {
				testutil.AssertEqual(t, sc.I18n.DefaultLocale, "zh-CN")
				testutil.AssertEqual(t, sc.Home["zh-CN"].Subtitle, "hi zh-CN")
				testutil.AssertEqual(t, sc.Home["en-US"].Features[2].Title, "2")
				testutil.AssertEqual(t, *sc.Sitemap.Priority, 1.0)
				testutil.AssertEqual(t, sc.EditURL, "https://github.com/example/docs/edit/main/")
			},
		},
		"syntax error": {
			src:     `title = `,
			wantErr: errConfigExec,
		},
		"runtime error": {
			src:     `title = 1 + "a"`,
			wantErr: errConfigExec,
		},
		"unsupported value": {
			src:     "def helper():\n    pass\n",
			wantErr: errConfigValue,
		},
		"wrong type": {
			src:     `title = 42`,
			wantErr: errConfigValue,
		},
		"no locales": {
			src:     `i18n = {"locales": []}`,
			wantErr: errNoLocales,
		},
		"invalid locale": {
			src: `
i18n = {"locales": ["en-US", "not a locale"]}
home = {"en-US": {}, "not a locale": {}}
`,
			wantErr: errLocaleInvalid,
		},
		"duplicate locale": {
			src: `
i18n = {"locales": ["en-US", "en-US"]}
home = {"en-US": {}}
`,
			wantErr: errLocaleDuplicate,
		},
		"unknown default locale": {
			src: `
i18n = {"default_locale": "fr-FR", "locales": ["en-US"]}
home = {"en-US": {}}
`,
			wantErr: errDefaultLocale,
		},
		"missing home": {
			src: `
i18n = {"locales": ["en-US", "zh-CN"]}
home = {"en-US": {}}
`,
			wantErr: errHomeMissing,
		},
		"invalid on_broken_links": {
			src: `
on_broken_links = "explode"
i18n = {"locales": ["en-US"]}
home = {"en-US": {}}
`,
			wantErr: errOnBrokenLinks,
		},
		"invalid priority": {
			src: `
i18n = {"locales": ["en-US"]}
home = {"en-US": {}}
sitemap = {"priority": 2.5}
`,
			wantErr: errSitemapPriority,
		},
		"invalid ignore pattern": {
			src: `
i18n = {"locales": ["en-US"]}
home = {"en-US": {}}
sitemap = {"ignore_patterns": ["["]}
`,
			wantErr: errSitemapIgnorePattern,
		},
		"missing url": {
			src: `
i18n = {"locales": ["en-US"]}
home = {"en-US": {}}
`,
			wantErr: errSiteURL,
		},
		"url without scheme": {
			src: `
url = "example.com"
i18n = {"locales": ["en-US"]}
home = {"en-US": {}}
`,
			wantErr: errSiteURL,
		},
		"relative url": {
			src: `
url = "/docs"
i18n = {"locales": ["en-US"]}
home = {"en-US": {}}
`,
			wantErr: errSiteURL,
		},
		"invalid edit_url": {
			src: `
url = "https://example.com"
edit_url = "github.com/example/docs"
i18n = {"locales": ["en-US"]}
home = {"en-US": {}}
`,
			wantErr: errEditURL,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			sc, err := parseConfig("test.star", []byte(tc.src))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("want error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if tc.check != nil {
				tc.check(t, sc)
			}
		})
	}
}

func TestTags(t *testing.T) {
	sc := &SiteConfig{I18n: I18n{Locales: []string{"en-US", "zh-CN", "ja-JP"}}}
	tags := sc.Tags()
	testutil.AssertEqual(t, len(tags), 3)
	for i, tag := range tags {
		testutil.AssertEqual(t, tag.String(), sc.I18n.Locales[i])
	}
}
