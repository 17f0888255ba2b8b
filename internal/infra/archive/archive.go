// Package archive packs a directory's plaintext into the gzip-compressed
// tar stream that becomes a vault's base snapshot before encryption (spec
// §3, §4.3: base.tar.gz.aes256gcm.enc), and unpacks it again during
// replay.
package archive

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"

	"github.com/benjaminpreiss/git-vault/internal/domain"
	"github.com/benjaminpreiss/git-vault/internal/infra/digest"
	"github.com/klauspost/compress/gzip"
)

// Pack tars and gzips every regular file under dir, in the same
// lexicographic path order digest.DigestDir uses, and writes the result to
// dst.
func Pack(dst io.Writer, dir string) error {
	gw := gzip.NewWriter(dst)
	tw := tar.NewWriter(gw)

	files, err := digest.ListFiles(dir)
	if err != nil {
		return domain.NewError(domain.KindIOError, "archive.Pack", err)
	}

	for _, rel := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		info, err := os.Stat(full)
		if err != nil {
			return domain.NewError(domain.KindIOError, "archive.Pack", err)
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return domain.NewError(domain.KindIOError, "archive.Pack", err)
		}
		hdr.Name = rel
		if err := tw.WriteHeader(hdr); err != nil {
			return domain.NewError(domain.KindIOError, "archive.Pack", err)
		}

		f, err := os.Open(full)
		if err != nil {
			return domain.NewError(domain.KindIOError, "archive.Pack", err)
		}
		_, err = io.Copy(tw, f)
		closeErr := f.Close()
		if err != nil {
			return domain.NewError(domain.KindIOError, "archive.Pack", err)
		}
		if closeErr != nil {
			return domain.NewError(domain.KindIOError, "archive.Pack", closeErr)
		}
	}

	if err := tw.Close(); err != nil {
		return domain.NewError(domain.KindIOError, "archive.Pack", err)
	}
	if err := gw.Close(); err != nil {
		return domain.NewError(domain.KindIOError, "archive.Pack", err)
	}
	return nil
}

// Unpack gunzips and untars src into dir, which must already exist. It
// creates parent directories for nested entries as needed. A malformed
// stream is reported as KindCorruptPatch — an unpack only ever runs on a
// just-decrypted base, so a structural failure here means the plaintext
// itself is not the archive it claims to be.
func Unpack(src io.Reader, dir string) error {
	gr, err := gzip.NewReader(src)
	if err != nil {
		return domain.NewError(domain.KindCorruptPatch, "archive.Unpack", err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.NewError(domain.KindCorruptPatch, "archive.Unpack", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		dst := filepath.Join(dir, filepath.FromSlash(hdr.Name))
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			return domain.NewError(domain.KindIOError, "archive.Unpack", err)
		}
		f, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
		if err != nil {
			return domain.NewError(domain.KindIOError, "archive.Unpack", err)
		}
		_, err = io.Copy(f, tr)
		closeErr := f.Close()
		if err != nil {
			return domain.NewError(domain.KindIOError, "archive.Unpack", err)
		}
		if closeErr != nil {
			return domain.NewError(domain.KindIOError, "archive.Unpack", closeErr)
		}
	}
	return nil
}
