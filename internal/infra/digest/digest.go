// Package digest computes the stable, content-only directory fingerprint
// used for change detection and cache validation (spec §4.2, component C2).
package digest

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/benjaminpreiss/git-vault/internal/domain"
)

// Digester implements domain.Digester.
type Digester struct {
	crypto domain.CryptoEngine
}

// New returns a Digester backed by the given crypto engine, which it uses
// for SHA-256 hashing so the digest stays consistent with the rest of the
// storage engine's hash primitive.
func New(crypto domain.CryptoEngine) *Digester {
	return &Digester{crypto: crypto}
}

var _ domain.Digester = (*Digester)(nil)

// DigestDir walks root, hashing every regular file's bytes in lexicographic
// path order, then hashes the concatenation of those hashes. Symlinks and
// directory entries themselves are skipped; an empty tree digests to
// hash_sha256(<empty>).
func (d *Digester) DigestDir(root string) (domain.Digest, error) {
	paths, err := ListFiles(root)
	if err != nil {
		return domain.Digest{}, domain.NewError(domain.KindIOError, "digest.DigestDir", err)
	}

	var buf bytes.Buffer
	for _, rel := range paths {
		f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return domain.Digest{}, domain.NewError(domain.KindIOError, "digest.DigestDir", err)
		}
		h, err := d.crypto.HashSHA256(f)
		closeErr := f.Close()
		if err != nil {
			return domain.Digest{}, err
		}
		if closeErr != nil {
			return domain.Digest{}, domain.NewError(domain.KindIOError, "digest.DigestDir", closeErr)
		}
		buf.Write(h[:])
	}

	return d.crypto.HashSHA256(&buf)
}

// ListFiles returns every regular file under root, as "/"-separated paths
// relative to root, sorted byte-wise lexicographically. Symlinks and
// directories are excluded; this is the enumeration order every component
// that walks a directory tree (digest, patch synthesis, archiving) must
// agree on.
func ListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
