// Package disktier implements a filesystem-backed durable tier with one
// file per key.
package disktier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/pantrylabs/pantry/internal/codec"
	"github.com/pantrylabs/pantry/internal/tier"
)

// Namespace is the on-disk cache format version. Bumping it orphans all
// entries written under previous versions, which acts as a coarse
// whole-cache invalidation.
const Namespace = "v1"

// Compile-time checks that Tier implements tier.Tier and tier.Sweeper.
var (
	_ tier.Tier    = (*Tier)(nil)
	_ tier.Sweeper = (*Tier)(nil)
)

// Tier is a filesystem-backed durable tier. Each key is stored as a single
// file named by a hash of the key, with payloads run through the codec.
type Tier struct {
	root  string
	codec codec.Codec
	lock  *flock.Flock
}

// New creates a disk tier rooted at the given directory, creating it if
// needed. A file lock on the namespace directory guards against other
// processes opening the same cache directory.
func New(root string, c codec.Codec) (*Tier, error) {
	objDir := filepath.Join(root, Namespace, "objects")
	if err := os.MkdirAll(objDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	lock := flock.New(filepath.Join(root, Namespace, ".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking cache directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("cache directory %s is in use by another process", root)
	}

	return &Tier{
		root:  root,
		codec: c,
		lock:  lock,
	}, nil
}

// Get reads and decodes the payload stored under key.
func (t *Tier) Get(ctx context.Context, key string) ([]byte, error) {
	// Check for cancellation before starting I/O.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	encoded, err := os.ReadFile(t.objectPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, tier.ErrNotFound
		}
		return nil, fmt.Errorf("reading entry: %w", err)
	}

	reader, err := t.codec.Reader(bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("creating decompressor: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("decompressing entry: %w", err)
	}

	return data, nil
}

// Set encodes and stores the payload under key. The payload is written to
// a temp file first and renamed into place so readers never observe a
// partially written entry.
func (t *Tier) Set(ctx context.Context, key string, data []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	var buf bytes.Buffer
	writer, err := t.codec.Writer(&buf)
	if err != nil {
		return fmt.Errorf("creating compressor: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("compressing entry: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("compressing entry: %w", err)
	}

	path := t.objectPath(key)
	tmp := path + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("committing entry: %w", err)
	}

	return nil
}

// Delete removes the entry stored under key.
func (t *Tier) Delete(ctx context.Context, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := os.Remove(t.objectPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing entry: %w", err)
	}
	return nil
}

// Clear removes every entry in the current namespace.
func (t *Tier) Clear(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	objDir := filepath.Join(t.root, Namespace, "objects")
	if err := os.RemoveAll(objDir); err != nil {
		return fmt.Errorf("clearing entries: %w", err)
	}
	if err := os.MkdirAll(objDir, 0o755); err != nil {
		return fmt.Errorf("recreating objects directory: %w", err)
	}
	return nil
}

// Sweep visits every entry in the namespace and deletes those for which
// shouldDelete returns true. Unreadable entries, leftover temp files from
// interrupted writes, and files not written by this tier's codec are
// skipped.
func (t *Tier) Sweep(ctx context.Context, shouldDelete func(data []byte) bool) (int, error) {
	objDir := filepath.Join(t.root, Namespace, "objects")
	entries, err := os.ReadDir(objDir)
	if err != nil {
		return 0, fmt.Errorf("listing entries: %w", err)
	}

	deleted := 0
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return deleted, ctx.Err()
		default:
		}
		if entry.IsDir() || !t.ownsObject(entry.Name()) {
			continue
		}

		path := filepath.Join(objDir, entry.Name())
		encoded, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		reader, err := t.codec.Reader(bytes.NewReader(encoded))
		if err != nil {
			continue
		}
		data, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			continue
		}

		if shouldDelete(data) {
			if err := os.Remove(path); err == nil {
				deleted++
			}
		}
	}

	return deleted, nil
}

// Close releases the cache directory lock.
func (t *Tier) Close() error {
	if t.lock != nil {
		return t.lock.Unlock()
	}
	return nil
}

// objectPath returns the filesystem path for a key.
func (t *Tier) objectPath(key string) string {
	return filepath.Join(t.root, Namespace, "objects", t.objectName(key))
}

// objectName returns the filename for a key.
func (t *Tier) objectName(key string) string {
	name := tier.EncodeKey(key)
	if ext := t.codec.Extension(); ext != "" {
		name += "." + ext
	}
	return name
}

// ownsObject reports whether a filename in the objects directory is an
// entry written by this tier's codec, as opposed to a temp file or a file
// written under another codec.
func (t *Tier) ownsObject(name string) bool {
	if strings.HasSuffix(name, ".tmp") {
		return false
	}
	if ext := t.codec.Extension(); ext != "" {
		return strings.HasSuffix(name, "."+ext)
	}
	return !strings.Contains(name, ".")
}
