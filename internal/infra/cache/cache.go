// Package cache implements the plaintext cache mirror that lets unlock
// avoid a full replay when nothing has changed (spec §4.6, invariant I6).
// The cache lives outside the committed tree, alongside the vault's
// ciphertext, and is never treated as authoritative by itself: its stored
// hash must agree with a fresh re-digest of its own content before it is
// trusted.
package cache

import (
	"os"
	"path/filepath"

	"github.com/benjaminpreiss/git-vault/internal/domain"
	"github.com/benjaminpreiss/git-vault/internal/infra/crypto"
	"github.com/benjaminpreiss/git-vault/internal/infra/digest"
)

const hashFileName = "cache.hash"

// Cache implements domain.Cache, mirroring one vault's plaintext under
// cacheDir (R/.git-vault/cache/<V>).
type Cache struct {
	cacheDir string
	digester domain.Digester
}

// New returns a Cache rooted at cacheDir, using digester to verify its own
// content against its stored hash (I6).
func New(cacheDir string, digester domain.Digester) *Cache {
	return &Cache{cacheDir: cacheDir, digester: digester}
}

var _ domain.Cache = (*Cache)(nil)

func (c *Cache) hashPath() string { return filepath.Join(c.cacheDir, hashFileName) }
func (c *Cache) contentDir() string {
	return filepath.Join(c.cacheDir, "content")
}

// Valid reports whether the cache can be trusted as a stand-in for want,
// per I6: the hash recorded at Refresh time must equal want, AND a fresh
// digest of the cache's own content must also equal want. A cache that was
// tampered with or partially written fails the second check even if the
// recorded hash file was left untouched.
func (c *Cache) Valid(want domain.Digest) (bool, error) {
	raw, err := os.ReadFile(c.hashPath())
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, domain.NewError(domain.KindIOError, "cache.Valid", err)
	}
	stored, err := crypto.ParseDigest(string(raw))
	if err != nil {
		// An unparsable stored hash is a corrupted cache, not a fatal error.
		return false, nil
	}
	if stored != want {
		return false, nil
	}

	if _, err := os.Stat(c.contentDir()); os.IsNotExist(err) {
		return false, nil
	}
	actual, err := c.digester.DigestDir(c.contentDir())
	if err != nil {
		return false, err
	}
	return actual == want, nil
}

// CopyInto mirrors the cache's content into target, replacing whatever is
// there: every file the cache does not have is removed from target, and
// every file the cache has is written with the cache's bytes.
func (c *Cache) CopyInto(target string) error {
	cacheFiles, err := digest.ListFiles(c.contentDir())
	if err != nil {
		return domain.NewError(domain.KindIOError, "cache.CopyInto", err)
	}
	targetFiles, err := digest.ListFiles(target)
	if err != nil {
		return domain.NewError(domain.KindIOError, "cache.CopyInto", err)
	}

	want := make(map[string]bool, len(cacheFiles))
	for _, p := range cacheFiles {
		want[p] = true
	}
	for _, p := range targetFiles {
		if !want[p] {
			if err := os.Remove(filepath.Join(target, filepath.FromSlash(p))); err != nil {
				return domain.NewError(domain.KindIOError, "cache.CopyInto", err)
			}
		}
	}

	for _, p := range cacheFiles {
		content, err := os.ReadFile(filepath.Join(c.contentDir(), filepath.FromSlash(p)))
		if err != nil {
			return domain.NewError(domain.KindIOError, "cache.CopyInto", err)
		}
		dst := filepath.Join(target, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			return domain.NewError(domain.KindIOError, "cache.CopyInto", err)
		}
		if err := writeFileAtomic(dst, content, 0o640); err != nil {
			return err
		}
	}
	return nil
}

// Present reports whether Refresh has ever been called successfully,
// regardless of whether the cache would currently pass Valid.
func (c *Cache) Present() (bool, error) {
	if _, err := os.Stat(c.hashPath()); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, domain.NewError(domain.KindIOError, "cache.Present", err)
	}
	return true, nil
}

// Refresh replaces the cache's content with a mirror of source and records
// hash last, so a crash mid-refresh is detected by Valid rather than
// silently trusted (the same ordering discipline as vaultstore's
// state.hash write).
func (c *Cache) Refresh(source string, hash domain.Digest) error {
	if err := os.RemoveAll(c.contentDir()); err != nil {
		return domain.NewError(domain.KindIOError, "cache.Refresh", err)
	}
	if err := os.MkdirAll(c.contentDir(), 0o750); err != nil {
		return domain.NewError(domain.KindIOError, "cache.Refresh", err)
	}

	files, err := digest.ListFiles(source)
	if err != nil {
		return domain.NewError(domain.KindIOError, "cache.Refresh", err)
	}
	for _, p := range files {
		content, err := os.ReadFile(filepath.Join(source, filepath.FromSlash(p)))
		if err != nil {
			return domain.NewError(domain.KindIOError, "cache.Refresh", err)
		}
		dst := filepath.Join(c.contentDir(), filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			return domain.NewError(domain.KindIOError, "cache.Refresh", err)
		}
		if err := writeFileAtomic(dst, content, 0o640); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(c.cacheDir, 0o750); err != nil {
		return domain.NewError(domain.KindIOError, "cache.Refresh", err)
	}
	return writeFileAtomic(c.hashPath(), []byte(crypto.FormatDigest(hash)), 0o640)
}

// writeFileAtomic writes content to a temp file beside path, fsyncs it,
// then renames it into place (mirrors vaultstore's atomic-write idiom).
func writeFileAtomic(path string, content []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return domain.NewError(domain.KindIOError, "cache.writeFileAtomic", err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return domain.NewError(domain.KindIOError, "cache.writeFileAtomic", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return domain.NewError(domain.KindIOError, "cache.writeFileAtomic", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return domain.NewError(domain.KindIOError, "cache.writeFileAtomic", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return domain.NewError(domain.KindIOError, "cache.writeFileAtomic", err)
	}
	return nil
}
