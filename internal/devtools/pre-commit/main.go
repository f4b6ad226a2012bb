// © 2025 Go-Sail Authors. All rights reserved.
// Use of this source code is governed by the MIT
// license that can be found in the LICENSE file.

// Pre-commit runs the checks that must pass before changes are committed:
// formatting, static analysis, tests, module tidiness, copyright headers and
// a production build of the site.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"go.astrophena.name/base/cli"

	"github.com/go-sail/docs/internal/devtools"
)

func main() { cli.Main(cli.AppFunc(run)) }

func run(ctx context.Context) error {
	devtools.EnsureRoot()

	isCI := cli.GetEnv(ctx).Getenv("CI") == "true"

	var w bytes.Buffer

	if err := runCmd(ctx, &w, "gofmt", "-d", "ci_test.go", "internal"); err != nil {
		return err
	}
	if diff := w.String(); diff != "" {
		return fmt.Errorf("run gofmt on these files:\n\t%v", diff)
	}

	steps := [][]string{
		{"go", "tool", "staticcheck", "./..."},
	}
	if isCI {
		steps = append(steps, []string{"go", "test", "-race", "./..."})
	} else {
		steps = append(steps, []string{"go", "test", "./..."})
	}
	steps = append(steps,
		[]string{"go", "mod", "tidy", "--diff"},
		[]string{"go", "tool", "addcopyright"},
	)

	tmp, err := os.MkdirTemp("", "go-sail-docs-build")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)
	steps = append(steps, []string{"go", "tool", "build", "-prod", tmp})

	if isCI {
		steps = append(steps, []string{"git", "diff", "--exit-code"})
	}

	for _, step := range steps {
		if err := runCmd(ctx, &w, step[0], step[1:]...); err != nil {
			return err
		}
	}
	return nil
}

func runCmd(ctx context.Context, buf *bytes.Buffer, cmd string, args ...string) error {
	buf.Reset()
	c := exec.CommandContext(ctx, cmd, args...)
	c.Stdout = buf
	c.Stderr = buf
	if err := c.Run(); err != nil {
		return fmt.Errorf("%s failed: %v:\n%v", cmd, err, buf.String())
	}
	return nil
}
