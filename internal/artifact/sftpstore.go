package artifact

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/liftoffbuild/liftoff/internal/paths"
)

// Artifact store backed by an SFTP server.
//
// The remote layout mirrors [DirStore]: <root>/<revision>/<platformID>/
// <filename>. Uploads write to a ".partial" name and rename it into
// place so a half-transferred artifact is never visible to a download.
type SFTPStore struct {
	addr     string
	user     string
	keyFile  string
	password string
	root     string
}

// Configures an SFTP store.
type SFTPConfig struct {
	Addr     string // SSH address (host:port).
	User     string // SSH user.
	KeyFile  string // Path to the private key. Takes precedence over Password.
	Password string // Password auth, used when KeyFile is empty.
	Root     string // Remote store root. Empty uses the login directory.
}

// Creates an SFTP store. The connection is established per operation.
func NewSFTPStore(cfg SFTPConfig) *SFTPStore {
	return &SFTPStore{
		addr:     cfg.Addr,
		user:     cfg.User,
		keyFile:  cfg.KeyFile,
		password: cfg.Password,
		root:     cfg.Root,
	}
}

// Uploads an artifact under its revision and platform key.
func (s *SFTPStore) Upload(ctx context.Context, revision string, a Artifact) error {
	conn, client, err := s.connect()
	if err != nil {
		return err
	}
	defer conn.Close()
	defer client.Close()

	dir := path.Join(s.root, revision, a.PlatformID)
	if err := client.MkdirAll(dir); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	// Clear whatever a previous run left under this key.
	if entries, err := client.ReadDir(dir); err == nil {
		for _, e := range entries {
			client.Remove(path.Join(dir, e.Name()))
		}
	}

	partial := path.Join(dir, a.Filename+".partial")
	if err := s.push(client, a.Path, partial); err != nil {
		client.Remove(partial)
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	if err := client.PosixRename(partial, path.Join(dir, a.Filename)); err != nil {
		client.Remove(partial)
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	slog.Debug("artifact uploaded", "store", "sftp", "revision", revision, "platform", a.PlatformID, "file", a.Filename)
	return nil
}

// Downloads the artifacts for the given platform keys into destDir.
func (s *SFTPStore) Download(ctx context.Context, revision string, platformIDs []string, destDir string) (map[string]Artifact, error) {
	conn, client, err := s.connect()
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	defer client.Close()

	if err := os.MkdirAll(destDir, paths.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	found := make(map[string]Artifact, len(platformIDs))

	for _, id := range platformIDs {
		dir := path.Join(s.root, revision, id)

		entries, err := client.ReadDir(dir)
		if err != nil || len(entries) == 0 {
			return nil, fmt.Errorf("%w: platform %s at revision %s", ErrNotFound, id, revision)
		}

		filename := entries[0].Name()
		dest := filepath.Join(destDir, filename)
		if err := s.pull(client, path.Join(dir, filename), dest); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStore, err)
		}

		a, err := FromFile(dest, filename, id)
		if err != nil {
			return nil, err
		}
		found[id] = a
	}

	return found, nil
}

// Dials the SSH server and opens an SFTP session on top of it.
func (s *SFTPStore) connect() (*ssh.Client, *sftp.Client, error) {
	auth, err := s.authMethods()
	if err != nil {
		return nil, nil, err
	}

	conn, err := ssh.Dial("tcp", s.addr, &ssh.ClientConfig{
		User:            s.user,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: dial %s: %v", ErrStore, s.addr, err)
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	return conn, client, nil
}

// Builds the SSH auth methods from the configured key file or password.
func (s *SFTPStore) authMethods() ([]ssh.AuthMethod, error) {
	if s.keyFile != "" {
		data, err := os.ReadFile(s.keyFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStore, err)
		}
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStore, err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}

	if s.password != "" {
		return []ssh.AuthMethod{ssh.Password(s.password)}, nil
	}

	return nil, fmt.Errorf("%w: sftp store has no key file or password", ErrStore)
}

// Copies a local file to a remote path.
func (s *SFTPStore) push(client *sftp.Client, localPath, remotePath string) error {
	in, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := client.Create(remotePath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Chmod(paths.DefaultFileMode)
}

// Copies a remote file to a local path.
func (s *SFTPStore) pull(client *sftp.Client, remotePath, localPath string) error {
	in, err := client.Open(remotePath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
