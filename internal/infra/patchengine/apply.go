package patchengine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/benjaminpreiss/git-vault/internal/domain"
)

// Apply replays a change set onto target, in the order the records appear
// (spec §4.4 / §4.5 unlock step 5). DELETE removes the file if present;
// CREATE and MODIFY write the full content, creating parent directories as
// needed; BINDIFF overwrites a byte range in place without truncating the
// file. Any record referencing a target file in a state it cannot explain
// (e.g. BINDIFF against a file shorter than Offset+len(Content)) aborts the
// whole replay with KindCorruptPatch. Records applied before the failing
// one are not rolled back and stay in target.
func (e *Engine) Apply(target string, cs domain.ChangeSet) error {
	for _, r := range cs.Records {
		full := filepath.Join(target, filepath.FromSlash(r.Path))

		switch r.Action {
		case domain.ActionDelete:
			if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
				return domain.NewError(domain.KindIOError, "patchengine.Apply", err)
			}

		case domain.ActionCreate, domain.ActionModify:
			if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
				return domain.NewError(domain.KindIOError, "patchengine.Apply", err)
			}
			if err := os.WriteFile(full, r.Content, 0o640); err != nil {
				return domain.NewError(domain.KindIOError, "patchengine.Apply", err)
			}

		case domain.ActionBinDiff:
			if err := applyBinDiff(full, r); err != nil {
				return err
			}

		default:
			return domain.NewError(domain.KindCorruptPatch, "patchengine.Apply", fmt.Errorf("unknown action %q", r.Action))
		}
	}
	return nil
}

func applyBinDiff(full string, r domain.ChangeRecord) error {
	f, err := os.OpenFile(full, os.O_RDWR, 0o640)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewError(domain.KindCorruptPatch, "patchengine.applyBinDiff", fmt.Errorf("bindiff target %q does not exist", r.Path))
		}
		return domain.NewError(domain.KindIOError, "patchengine.applyBinDiff", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return domain.NewError(domain.KindIOError, "patchengine.applyBinDiff", err)
	}
	if r.Offset < 0 || r.Offset+int64(len(r.Content)) > info.Size() {
		return domain.NewError(domain.KindCorruptPatch, "patchengine.applyBinDiff", fmt.Errorf("bindiff range out of bounds for %q", r.Path))
	}

	if _, err := f.WriteAt(r.Content, r.Offset); err != nil {
		return domain.NewError(domain.KindIOError, "patchengine.applyBinDiff", err)
	}
	return nil
}
