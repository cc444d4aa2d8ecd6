package manifest

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default bound on a single target build before it is treated as failed.
const DefaultBuildTimeout = 15 * time.Minute

// Describes one build-and-release project.
//
// The manifest is the single source of per-platform variability: adding a
// platform is an edit to the targets list, not a code change.
type Manifest struct {
	Binary       string         `yaml:"binary"`        // Base name of the compiled binary.
	Targets      []Target       `yaml:"targets"`       // Target matrix. Empty uses [DefaultTargets].
	Store        StoreConfig    `yaml:"store"`         // Artifact store collaborator.
	Release      ReleaseConfig  `yaml:"release"`       // Release host collaborator.
	Compiler     CompilerConfig `yaml:"compiler"`      // Compiler collaborator.
	BuildTimeout Duration       `yaml:"build_timeout"` // Per-target build bound. Zero uses [DefaultBuildTimeout].
	Tracing      bool           `yaml:"tracing"`       // Enables the stdout trace exporter.
}

// Configures the artifact store collaborator.
type StoreConfig struct {
	Kind     string `yaml:"kind"`     // "dir" (default) or "sftp".
	Root     string `yaml:"root"`     // Store root. Empty uses the XDG default (dir) or the remote home (sftp).
	Addr     string `yaml:"addr"`     // SSH address for the sftp store (host:port).
	User     string `yaml:"user"`     // SSH user for the sftp store.
	KeyFile  string `yaml:"key_file"` // Path to the SSH private key for the sftp store.
	Password string `yaml:"password"` // SSH password, used when no key file is given.
}

// Configures the release host collaborator.
type ReleaseConfig struct {
	Kind  string `yaml:"kind"`  // "dir" (default) or "http".
	Root  string `yaml:"root"`  // Release root for the dir host. Empty uses the XDG default.
	URL   string `yaml:"url"`   // Base URL for the http host.
	Token string `yaml:"token"` // Bearer token for the http host.
}

// Configures the compiler collaborator.
type CompilerConfig struct {
	Kind      string `yaml:"kind"`      // "exec" (default) or "container".
	Command   string `yaml:"command"`   // Build command template. Placeholders: {triple}, {os}, {arch}, {revision}, {binary}, {output}.
	Output    string `yaml:"output"`    // Output path template for the compiled binary. Same placeholders as command.
	Dir       string `yaml:"dir"`       // Working directory for the exec compiler. Empty uses the current directory.
	Address   string `yaml:"address"`   // Containerd socket address for the container compiler.
	Namespace string `yaml:"namespace"` // Containerd namespace for the container compiler.
	Image     string `yaml:"image"`     // Build image tag for the container compiler.
}

// Wraps [time.Duration] so manifests can use "15m" style strings.
type Duration time.Duration

// Parses a duration from its YAML string form.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrManifest, err)
	}
	*d = Duration(parsed)
	return nil
}

// Reads and validates a manifest from a YAML file.
//
// Unknown fields are rejected. An empty targets list is replaced with
// [DefaultTargets] before validation.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	return Parse(data)
}

// Parses and validates a manifest from YAML bytes.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}

	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Fills unset fields with their defaults.
func (m *Manifest) applyDefaults() {
	if len(m.Targets) == 0 {
		m.Targets = DefaultTargets()
	}
	if m.Store.Kind == "" {
		m.Store.Kind = "dir"
	}
	if m.Release.Kind == "" {
		m.Release.Kind = "dir"
	}
	if m.Compiler.Kind == "" {
		m.Compiler.Kind = "exec"
	}
	if m.BuildTimeout == 0 {
		m.BuildTimeout = Duration(DefaultBuildTimeout)
	}
}

// Checks the manifest for structural problems.
//
// The binary name must be set, the target matrix must validate, and each
// collaborator kind must be one this build knows how to construct.
func (m *Manifest) Validate() error {
	if m.Binary == "" {
		return fmt.Errorf("%w: binary name is required", ErrManifest)
	}

	if err := ValidateTargets(m.Targets); err != nil {
		return err
	}

	switch m.Store.Kind {
	case "dir":
	case "sftp":
		if m.Store.Addr == "" || m.Store.User == "" {
			return fmt.Errorf("%w: sftp store requires addr and user", ErrManifest)
		}
	default:
		return fmt.Errorf("%w: unknown store kind %q", ErrManifest, m.Store.Kind)
	}

	switch m.Release.Kind {
	case "dir":
	case "http":
		if m.Release.URL == "" {
			return fmt.Errorf("%w: http release host requires url", ErrManifest)
		}
	default:
		return fmt.Errorf("%w: unknown release kind %q", ErrManifest, m.Release.Kind)
	}

	switch m.Compiler.Kind {
	case "exec":
		if m.Compiler.Command == "" || m.Compiler.Output == "" {
			return fmt.Errorf("%w: exec compiler requires command and output", ErrManifest)
		}
	case "container":
		if m.Compiler.Command == "" || m.Compiler.Output == "" || m.Compiler.Image == "" {
			return fmt.Errorf("%w: container compiler requires command, output, and image", ErrManifest)
		}
	default:
		return fmt.Errorf("%w: unknown compiler kind %q", ErrManifest, m.Compiler.Kind)
	}

	return nil
}

// Returns the effective per-target build timeout.
func (m *Manifest) Timeout() time.Duration {
	return time.Duration(m.BuildTimeout)
}
