// © 2025 Go-Sail Authors. All rights reserved.
// Use of this source code is governed by the MIT
// license that can be found in the LICENSE file.

package docs

//go:generate go tool addcopyright

import (
	"bytes"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/go-sail/docs/internal/site"
)

func TestGenerate(t *testing.T) {
	if os.Getenv("CI") != "true" {
		t.Skip("this test is only run in CI")
	}
	var w bytes.Buffer
	run(t, &w, "go", "generate")
	run(t, &w, "git", "diff", "--exit-code")
}

func TestGofmt(t *testing.T) {
	var w bytes.Buffer
	run(t, &w, "gofmt", "-d", "ci_test.go", "internal")
	if diff := w.String(); diff != "" {
		t.Fatalf("run gofmt on these files:\n\t%v", diff)
	}
}

func TestStaticcheck(t *testing.T) {
	var w bytes.Buffer
	run(t, &w, "go", "tool", "staticcheck", "./...")
}

// TestTranslations checks that every page of the default locale is
// translated to all other locales.
func TestTranslations(t *testing.T) {
	sc, err := site.LoadConfig(site.ConfigFile)
	if err != nil {
		t.Fatal(err)
	}

	defaultDir := filepath.Join("pages", sc.I18n.DefaultLocale)
	if err := filepath.WalkDir(defaultDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(defaultDir, path)
		if err != nil {
			return err
		}
		for _, l := range sc.I18n.Locales {
			if _, err := os.Stat(filepath.Join("pages", l, rel)); err != nil {
				t.Errorf("%s: missing %s translation: %v", path, l, err)
			}
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

func run(t *testing.T, buf *bytes.Buffer, cmd string, args ...string) {
	buf.Reset()
	c := exec.Command(cmd, args...)
	c.Stdout = buf
	c.Stderr = buf
	if err := c.Run(); err != nil {
		t.Fatalf("%s failed: %v:\n%v", cmd, err, buf.String())
	}
}
