package patchengine

import (
	"bytes"
	"crypto/sha256"
	"os"
	"path/filepath"
	"sort"

	"github.com/benjaminpreiss/git-vault/internal/domain"
	"github.com/benjaminpreiss/git-vault/internal/infra/digest"
)

// Synthesize compares a previous logical state (prev) against the current
// directory (cur) and returns the change set described in spec §4.4.
func (e *Engine) Synthesize(prev, cur string) (domain.ChangeSet, error) {
	prevFiles, err := digest.ListFiles(prev)
	if err != nil {
		return domain.ChangeSet{}, domain.NewError(domain.KindIOError, "patchengine.Synthesize", err)
	}
	curFiles, err := digest.ListFiles(cur)
	if err != nil {
		return domain.ChangeSet{}, domain.NewError(domain.KindIOError, "patchengine.Synthesize", err)
	}

	prevSet := toSet(prevFiles)
	curSet := toSet(curFiles)

	var cs domain.ChangeSet

	// Deletions: present in prev, absent in cur.
	for _, p := range prevFiles {
		if !curSet[p] {
			if err := validatePath(p); err != nil {
				return domain.ChangeSet{}, err
			}
			cs.Records = append(cs.Records, domain.ChangeRecord{Action: domain.ActionDelete, Path: p})
		}
	}

	// Creations: present in cur, absent in prev.
	for _, p := range curFiles {
		if prevSet[p] {
			continue
		}
		if err := validatePath(p); err != nil {
			return domain.ChangeSet{}, err
		}
		content, err := os.ReadFile(filepath.Join(cur, filepath.FromSlash(p)))
		if err != nil {
			return domain.ChangeSet{}, domain.NewError(domain.KindIOError, "patchengine.Synthesize", err)
		}
		cs.Records = append(cs.Records, domain.ChangeRecord{Action: domain.ActionCreate, Path: p, Content: content})
	}

	// Modifications: present in both, content differs.
	for _, p := range curFiles {
		if !prevSet[p] {
			continue
		}
		if err := validatePath(p); err != nil {
			return domain.ChangeSet{}, err
		}

		prevBytes, err := os.ReadFile(filepath.Join(prev, filepath.FromSlash(p)))
		if err != nil {
			return domain.ChangeSet{}, domain.NewError(domain.KindIOError, "patchengine.Synthesize", err)
		}
		curBytes, err := os.ReadFile(filepath.Join(cur, filepath.FromSlash(p)))
		if err != nil {
			return domain.ChangeSet{}, domain.NewError(domain.KindIOError, "patchengine.Synthesize", err)
		}

		if sha256.Sum256(prevBytes) == sha256.Sum256(curBytes) {
			continue
		}

		records := recordsFor(p, prevBytes, curBytes)
		cs.Records = append(cs.Records, records...)
	}

	sortRecords(cs.Records)
	return cs, nil
}

// recordsFor decides between MODIFY and BINDIFF for one changed file, per
// spec §4.4 step 4.
func recordsFor(path string, prevBytes, curBytes []byte) []domain.ChangeRecord {
	maxSize := len(prevBytes)
	if len(curBytes) > maxSize {
		maxSize = len(curBytes)
	}

	if maxSize <= smallFileThreshold {
		return []domain.ChangeRecord{{Action: domain.ActionModify, Path: path, Content: curBytes}}
	}

	if runs, ok := chunkBinDiff(prevBytes, curBytes); ok {
		out := make([]domain.ChangeRecord, len(runs))
		for i, r := range runs {
			r.Path = path
			out[i] = r
		}
		return out
	}

	return []domain.ChangeRecord{{Action: domain.ActionModify, Path: path, Content: curBytes}}
}

func toSet(paths []string) map[string]bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return set
}

// sortRecords orders the change set in file order (by path, then offset), so
// that patch output is deterministic and BINDIFF records for the same path
// stay grouped and in ascending offset order.
func sortRecords(records []domain.ChangeRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Path != records[j].Path {
			return records[i].Path < records[j].Path
		}
		return records[i].Offset < records[j].Offset
	})
}

// validatePath rejects a path that would break the change-set encoding's
// parse rule (spec §4.4): paths may not contain a newline or ':'.
func validatePath(p string) error {
	if bytes.ContainsAny([]byte(p), ":\n") {
		return domain.NewError(domain.KindCorruptPatch, "patchengine.validatePath", domain.ErrInvalidVaultPath)
	}
	return nil
}
