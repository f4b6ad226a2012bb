// © 2025 Go-Sail Authors. All rights reserved.
// Use of this source code is governed by the MIT
// license that can be found in the LICENSE file.

// Addcopyright adds copyright header to each Go, Starlark, HTML and Markdown
// file.
package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-sail/docs/internal/devtools"
)

var templates = map[string]string{
	".go": `// © %d Go-Sail Authors. All rights reserved.
// Use of this source code is governed by the MIT
// license that can be found in the LICENSE file.

`,
	".star": `# © %d Go-Sail Authors. All rights reserved.
# Use of this source code is governed by the MIT
# license that can be found in the LICENSE file.

`,
	".html": `<!--
© %d Go-Sail Authors. All rights reserved.
Use of this source code is governed by the CC-BY-SA
license that can be found in the LICENSE file.
-->

`,
	".md": `<!--
© %d Go-Sail Authors. All rights reserved.
Use of this source code is governed by the CC-BY-SA
license that can be found in the LICENSE file.
-->

`,
}

var headers = map[string]string{
	".go":   `// ©`,
	".html": "<!--\n© ",
	".md":   "<!--\n© ",
	".star": `# ©`,
}

// Templates are excluded because the header would end up in the rendered
// pages, and so are the reference material and generated output.
var exclusions = []string{
	"LICENSE",
	"templates",
	"build",
	"_examples",
}

func isExcluded(path string) bool {
	if slices.Contains(exclusions, path) || filepath.Base(path) == "testdata" {
		return true
	}
	// Top-level Markdown files document the repository itself.
	return filepath.Ext(path) == ".md" && filepath.Dir(path) == "."
}

func main() {
	devtools.EnsureRoot()

	if err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if isExcluded(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		tmpl, ok := templates[ext]
		if !ok {
			return nil
		}
		header, ok := headers[ext]
		if !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		if bytes.HasPrefix(content, []byte(header)) {
			return nil // Already has a copyright header
		}

		year := info.ModTime().Year()
		hdr := fmt.Sprintf(tmpl, year)

		var buf bytes.Buffer
		buf.WriteString(hdr)
		buf.Write(content)

		return os.WriteFile(path, buf.Bytes(), 0o644)
	}); err != nil {
		log.Fatal(err)
	}
}
