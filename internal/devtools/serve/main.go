// © 2025 Go-Sail Authors. All rights reserved.
// Use of this source code is governed by the MIT
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"go.astrophena.name/base/cli"

	"github.com/go-sail/docs/internal/devtools"
	"github.com/go-sail/docs/internal/site"
)

func main() { cli.Main(new(app)) }

type app struct {
	listen string
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.StringVar(&a.listen, "listen", "localhost:3000", "Listen on `host:port`.")
}

func (a *app) Run(ctx context.Context) error {
	devtools.EnsureRoot()

	env := cli.GetEnv(ctx)
	if len(env.Args) > 1 {
		return fmt.Errorf("%w: want at most one output directory", cli.ErrInvalidArgs)
	}
	dir := filepath.Join(".", "build")
	if len(env.Args) > 0 {
		dir = env.Args[0]
	}

	cfg := &site.Config{
		Src: ".",
		Dst: dir,
	}
	return site.Serve(ctx, cfg, a.listen)
}
