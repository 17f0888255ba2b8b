package usecase

import (
	"bytes"

	"github.com/benjaminpreiss/git-vault/internal/domain"
	"github.com/benjaminpreiss/git-vault/internal/infra/archive"
)

// replayInto decrypts a vault's base archive and every stored patch, in
// order, applying each to dir (spec §4.4 sequential replay). dir must
// already exist; callers decide whether it starts fresh (unlock) or holds
// a prior reconstruction (it never does, in this implementation — lock's
// previous-state reconstruction always starts from an empty scratch dir
// too).
func replayInto(dir string, key [32]byte, store domain.VaultStore, patches domain.PatchEngine, crypt domain.CryptoEngine) error {
	ciphertext, nonce, err := store.ReadBase()
	if err != nil {
		return err
	}

	var plaintext bytes.Buffer
	if err := crypt.Decrypt(&plaintext, bytes.NewReader(ciphertext), key, nonce); err != nil {
		return err
	}
	if err := archive.Unpack(&plaintext, dir); err != nil {
		return err
	}

	refs, err := store.ListPatches()
	if err != nil {
		return err
	}

	for _, ref := range refs {
		patchCiphertext, patchNonce, err := store.ReadPatch(ref)
		if err != nil {
			return err
		}
		var raw bytes.Buffer
		if err := crypt.Decrypt(&raw, bytes.NewReader(patchCiphertext), key, patchNonce); err != nil {
			return err
		}
		cs, err := patches.Decode(raw.Bytes())
		if err != nil {
			return err
		}
		if err := patches.Apply(dir, cs); err != nil {
			return err
		}
	}
	return nil
}
