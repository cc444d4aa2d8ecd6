package compiler

import (
	"context"
	"strings"

	"github.com/liftoffbuild/liftoff/internal/manifest"
)

// Produces a binary for one target of the matrix.
//
// Compile returns the local path of the compiled binary for the target's
// triple at the given source revision. The source revision is expected to
// be checked out in the compiler's working directory; the orchestrator
// never drives the checkout itself.
type Compiler interface {
	Compile(ctx context.Context, target manifest.Target, revision string) (string, error)
}

// Values substituted into command and output templates.
type templateVars struct {
	triple   string
	os       string
	arch     string
	platform string
	revision string
	binary   string
	output   string
}

// Substitutes template placeholders with their values.
//
// Supported placeholders: {triple}, {os}, {arch}, {platform}, {revision},
// {binary}, and {output}. Unknown placeholders are left untouched.
func expand(template string, vars templateVars) string {
	r := strings.NewReplacer(
		"{triple}", vars.triple,
		"{os}", vars.os,
		"{arch}", vars.arch,
		"{platform}", vars.platform,
		"{revision}", vars.revision,
		"{binary}", vars.binary,
		"{output}", vars.output,
	)
	return r.Replace(template)
}

// Environment entries exposing the target to the build command.
func targetEnv(vars templateVars) []string {
	return []string{
		"TARGET=" + vars.triple,
		"TARGET_OS=" + vars.os,
		"TARGET_ARCH=" + vars.arch,
		"GOOS=" + vars.os,
		"GOARCH=" + vars.arch,
		"REVISION=" + vars.revision,
	}
}
