package compiler

import (
	"strings"
	"testing"
)

func TestExpand(t *testing.T) {
	vars := templateVars{
		triple:   "linux/amd64",
		os:       "linux",
		arch:     "amd64",
		platform: "linux-amd64",
		revision: "1.4.2",
		binary:   "clapper",
		output:   "dist/clapper",
	}

	got := expand("build {binary} for {os}/{arch} ({triple}) rev {revision} into {output}", vars)
	want := "build clapper for linux/amd64 (linux/amd64) rev 1.4.2 into dist/clapper"
	if got != want {
		t.Fatalf("expand = %q, want %q", got, want)
	}
}

func TestExpandUnknownPlaceholder(t *testing.T) {
	got := expand("make {bogus}", templateVars{})
	if got != "make {bogus}" {
		t.Fatalf("expand = %q, want unknown placeholder untouched", got)
	}
}

func TestTargetEnv(t *testing.T) {
	env := targetEnv(templateVars{
		triple:   "windows/amd64",
		os:       "windows",
		arch:     "amd64",
		revision: "1.4.2",
	})

	want := []string{
		"TARGET=windows/amd64",
		"TARGET_OS=windows",
		"TARGET_ARCH=amd64",
		"GOOS=windows",
		"GOARCH=amd64",
		"REVISION=1.4.2",
	}

	for _, entry := range want {
		var found bool
		for _, e := range env {
			if e == entry {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("env missing %q, got %v", entry, env)
		}
	}
}

func TestTail(t *testing.T) {
	lines := []string{"one", "two", "three", "four", "five", "six", "seven"}
	got := tail(strings.Join(lines, "\n"))

	if strings.Contains(got, "one") || strings.Contains(got, "two") {
		t.Fatalf("tail kept early lines: %q", got)
	}
	if !strings.HasSuffix(got, "seven") {
		t.Fatalf("tail = %q, want last line kept", got)
	}
}
