package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/liftoffbuild/liftoff/internal/artifact"
	"github.com/liftoffbuild/liftoff/internal/compiler"
	"github.com/liftoffbuild/liftoff/internal/manifest"
	"github.com/liftoffbuild/liftoff/internal/release"
)

var testTargets = []manifest.Target{
	{Platform: "linux-amd64", Triple: "linux/amd64"},
	{Platform: "windows-amd64", Triple: "windows/amd64", ExeSuffix: true},
}

// Compiler stub failing the configured platforms and building the rest.
type fakeCompiler struct {
	dir  string
	fail map[string]error
}

func (f *fakeCompiler) Compile(ctx context.Context, target manifest.Target, revision string) (string, error) {
	if err := f.fail[target.Platform]; err != nil {
		return "", err
	}

	path := filepath.Join(f.dir, "binary-"+target.Platform)
	content := fmt.Sprintf("%s at %s", target.Platform, revision)
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		return "", err
	}
	return path, nil
}

// Publisher stub recording published records.
type fakePublisher struct {
	records []release.Record
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, rec release.Record) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func newCoordinator(t *testing.T, comp compiler.Compiler, pub release.Publisher) *Coordinator {
	t.Helper()
	dir := t.TempDir()
	return &Coordinator{
		Binary:    "clapper",
		Targets:   testTargets,
		Compiler:  comp,
		Store:     artifact.NewDirStore(filepath.Join(dir, "store")),
		Publisher: pub,
		Timeout:   time.Minute,
		Scratch:   filepath.Join(dir, "scratch"),
	}
}

func TestExecutePublishes(t *testing.T) {
	pub := &fakePublisher{}
	c := newCoordinator(t, &fakeCompiler{dir: t.TempDir()}, pub)

	r := c.NewRun("1.4.2")
	report, err := c.Execute(context.Background(), r)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if r.State() != StatePublished {
		t.Fatalf("state = %q, want %q", r.State(), StatePublished)
	}
	if report.ReleaseID != release.ID("1.4.2") {
		t.Fatalf("release id = %q, want %q", report.ReleaseID, release.ID("1.4.2"))
	}
	if len(pub.records) != 1 {
		t.Fatalf("publisher called %d times, want 1", len(pub.records))
	}

	rec := pub.records[0]
	names := make(map[string]bool, len(rec.Assets))
	for _, a := range rec.Assets {
		names[a.Name] = true
	}

	for _, want := range []string{
		"clapper-linux-amd64",
		"clapper-windows-amd64.exe",
		"clapper-" + rec.ID + ".tar.zst",
		"checksums.txt",
	} {
		if !names[want] {
			t.Fatalf("release missing asset %q, got %v", want, names)
		}
	}
}

func TestExecuteAbortsOnFailure(t *testing.T) {
	pub := &fakePublisher{}
	comp := &fakeCompiler{
		dir:  t.TempDir(),
		fail: map[string]error{"windows-amd64": fmt.Errorf("%w: linker error", compiler.ErrCompile)},
	}
	c := newCoordinator(t, comp, pub)

	r := c.NewRun("1.4.2")
	report, err := c.Execute(context.Background(), r)

	if !errors.Is(err, ErrAborted) {
		t.Fatalf("err = %v, want ErrAborted", err)
	}
	if r.State() != StateAborted {
		t.Fatalf("state = %q, want %q", r.State(), StateAborted)
	}
	if len(pub.records) != 0 {
		t.Fatal("aborted run still published a release")
	}

	if len(report.Failed) != 1 || report.Failed[0] != "windows-amd64" {
		t.Fatalf("failed = %v, want [windows-amd64]", report.Failed)
	}

	// The healthy platform still ran to completion before the abort.
	var linux JobReport
	for _, j := range report.Jobs {
		if j.Platform == "linux-amd64" {
			linux = j
		}
	}
	if linux.Status != StatusSucceeded {
		t.Fatalf("linux status = %q, want %q", linux.Status, StatusSucceeded)
	}
}

func TestExecuteFailureStageAttributed(t *testing.T) {
	comp := &fakeCompiler{
		dir:  t.TempDir(),
		fail: map[string]error{"windows-amd64": fmt.Errorf("%w: no output", compiler.ErrMissingOutput)},
	}
	c := newCoordinator(t, comp, &fakePublisher{})

	r := c.NewRun("1.4.2")
	report, _ := c.Execute(context.Background(), r)

	for _, j := range report.Jobs {
		if j.Platform == "windows-amd64" && j.Stage != "package" {
			t.Fatalf("stage = %q, want package", j.Stage)
		}
	}
}

func TestExecuteSameRevisionConverges(t *testing.T) {
	pub := &fakePublisher{}
	c := newCoordinator(t, &fakeCompiler{dir: t.TempDir()}, pub)

	first, err := c.Execute(context.Background(), c.NewRun("1.4.2"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Execute(context.Background(), c.NewRun("1.4.2"))
	if err != nil {
		t.Fatal(err)
	}

	if first.RunID == second.RunID {
		t.Fatal("runs share an identifier")
	}
	if first.ReleaseID != second.ReleaseID {
		t.Fatalf("release ids %q and %q, want the same for one revision", first.ReleaseID, second.ReleaseID)
	}
	if len(pub.records) != 2 || pub.records[0].ID != pub.records[1].ID {
		t.Fatal("republish targeted a different release id")
	}
}

func TestExecuteAggregationMismatch(t *testing.T) {
	pub := &fakePublisher{}
	c := newCoordinator(t, &fakeCompiler{dir: t.TempDir()}, pub)
	c.Store = &renamingStore{Store: c.Store}

	r := c.NewRun("1.4.2")
	_, err := c.Execute(context.Background(), r)

	if !errors.Is(err, ErrAggregation) {
		t.Fatalf("err = %v, want ErrAggregation", err)
	}
	if r.State() != StateAborted {
		t.Fatalf("state = %q, want %q", r.State(), StateAborted)
	}
	if len(pub.records) != 0 {
		t.Fatal("inconsistent artifact set still published")
	}
}

func TestExecuteAggregationNotFound(t *testing.T) {
	pub := &fakePublisher{}
	c := newCoordinator(t, &fakeCompiler{dir: t.TempDir()}, pub)
	c.Store = &vanishingStore{Store: c.Store}

	r := c.NewRun("1.4.2")
	_, err := c.Execute(context.Background(), r)

	// Every job reported success, yet the store has lost an artifact.
	if !errors.Is(err, ErrAggregation) {
		t.Fatalf("err = %v, want ErrAggregation", err)
	}
	if r.State() != StateAborted {
		t.Fatalf("state = %q, want %q", r.State(), StateAborted)
	}
	if len(pub.records) != 0 {
		t.Fatal("incomplete artifact set still published")
	}
}

func TestExecutePublishFailureAborts(t *testing.T) {
	pub := &fakePublisher{err: errors.New("host unreachable")}
	c := newCoordinator(t, &fakeCompiler{dir: t.TempDir()}, pub)

	r := c.NewRun("1.4.2")
	_, err := c.Execute(context.Background(), r)

	if err == nil {
		t.Fatal("Execute ignored publish failure")
	}
	if r.State() != StateAborted {
		t.Fatalf("state = %q, want %q", r.State(), StateAborted)
	}
}

func TestExecuteTimeout(t *testing.T) {
	pub := &fakePublisher{}
	c := newCoordinator(t, &hangingCompiler{dir: t.TempDir()}, pub)
	c.Timeout = 20 * time.Millisecond

	r := c.NewRun("1.4.2")
	_, err := c.Execute(context.Background(), r)

	if !errors.Is(err, ErrAborted) {
		t.Fatalf("err = %v, want ErrAborted after timeout", err)
	}
	if len(pub.records) != 0 {
		t.Fatal("timed-out run still published")
	}
}

// Store wrapper that corrupts downloaded filenames.
type renamingStore struct {
	artifact.Store
}

func (s *renamingStore) Download(ctx context.Context, revision string, platformIDs []string, destDir string) (map[string]artifact.Artifact, error) {
	got, err := s.Store.Download(ctx, revision, platformIDs, destDir)
	if err != nil {
		return nil, err
	}
	for id, a := range got {
		a.Filename = "mangled-" + a.Filename
		got[id] = a
	}
	return got, nil
}

// Store wrapper whose downloads always report a missing artifact.
type vanishingStore struct {
	artifact.Store
}

func (s *vanishingStore) Download(ctx context.Context, revision string, platformIDs []string, destDir string) (map[string]artifact.Artifact, error) {
	return nil, fmt.Errorf("%w: platform %s at revision %s", artifact.ErrNotFound, platformIDs[0], revision)
}

// Compiler stub blocking until its context is cancelled.
type hangingCompiler struct {
	dir string
}

func (h *hangingCompiler) Compile(ctx context.Context, target manifest.Target, revision string) (string, error) {
	<-ctx.Done()
	return "", fmt.Errorf("%w: %v", compiler.ErrCompile, ctx.Err())
}
