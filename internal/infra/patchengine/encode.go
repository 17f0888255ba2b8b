package patchengine

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/benjaminpreiss/git-vault/internal/domain"
)

// Encode renders a change set in the ASCII change-file format described in
// spec §4.4: one line per record, "ACTION:PATH:PAYLOAD". Only the first two
// colons are significant; PAYLOAD is opaque beyond that point.
//
// CREATE and MODIFY carry the base64 of the full new content. DELETE
// carries no payload. BINDIFF carries "OFFSET:BASE64" as its payload.
func (e *Engine) Encode(cs domain.ChangeSet) ([]byte, error) {
	var buf bytes.Buffer
	for _, r := range cs.Records {
		line, err := encodeRecord(r)
		if err != nil {
			return nil, err
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func encodeRecord(r domain.ChangeRecord) (string, error) {
	if strings.ContainsAny(r.Path, ":\n") {
		return "", domain.NewError(domain.KindCorruptPatch, "patchengine.encodeRecord", domain.ErrInvalidVaultPath)
	}

	switch r.Action {
	case domain.ActionCreate, domain.ActionModify:
		return fmt.Sprintf("%s:%s:%s", r.Action, r.Path, base64.StdEncoding.EncodeToString(r.Content)), nil
	case domain.ActionDelete:
		return fmt.Sprintf("%s:%s:", r.Action, r.Path), nil
	case domain.ActionBinDiff:
		return fmt.Sprintf("%s:%s:%d:%s", r.Action, r.Path, r.Offset, base64.StdEncoding.EncodeToString(r.Content)), nil
	default:
		return "", domain.NewError(domain.KindCorruptPatch, "patchengine.encodeRecord", fmt.Errorf("unknown action %q", r.Action))
	}
}

// Decode parses the ASCII change-file format produced by Encode.
func (e *Engine) Decode(raw []byte) (domain.ChangeSet, error) {
	var cs domain.ChangeSet
	lines := strings.Split(string(raw), "\n")
	for _, line := range lines {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec, err := decodeRecord(line)
		if err != nil {
			return domain.ChangeSet{}, err
		}
		cs.Records = append(cs.Records, rec)
	}
	return cs, nil
}

// decodeRecord splits on the first two colons only, so that a base64
// payload (which never contains ':') and a path (validated to never
// contain ':') cannot be confused with the field separators.
func decodeRecord(line string) (domain.ChangeRecord, error) {
	first := strings.IndexByte(line, ':')
	if first < 0 {
		return domain.ChangeRecord{}, domain.NewError(domain.KindCorruptPatch, "patchengine.decodeRecord", fmt.Errorf("missing action separator"))
	}
	rest := line[first+1:]
	second := strings.IndexByte(rest, ':')
	if second < 0 {
		return domain.ChangeRecord{}, domain.NewError(domain.KindCorruptPatch, "patchengine.decodeRecord", fmt.Errorf("missing path separator"))
	}

	action := domain.Action(line[:first])
	path := rest[:second]
	payload := rest[second+1:]

	if strings.ContainsAny(path, ":\n") {
		return domain.ChangeRecord{}, domain.NewError(domain.KindCorruptPatch, "patchengine.decodeRecord", domain.ErrInvalidVaultPath)
	}

	switch action {
	case domain.ActionCreate, domain.ActionModify:
		content, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return domain.ChangeRecord{}, domain.NewError(domain.KindCorruptPatch, "patchengine.decodeRecord", err)
		}
		return domain.ChangeRecord{Action: action, Path: path, Content: content}, nil
	case domain.ActionDelete:
		return domain.ChangeRecord{Action: action, Path: path}, nil
	case domain.ActionBinDiff:
		third := strings.IndexByte(payload, ':')
		if third < 0 {
			return domain.ChangeRecord{}, domain.NewError(domain.KindCorruptPatch, "patchengine.decodeRecord", fmt.Errorf("missing bindiff offset"))
		}
		offset, err := strconv.ParseInt(payload[:third], 10, 64)
		if err != nil {
			return domain.ChangeRecord{}, domain.NewError(domain.KindCorruptPatch, "patchengine.decodeRecord", err)
		}
		content, err := base64.StdEncoding.DecodeString(payload[third+1:])
		if err != nil {
			return domain.ChangeRecord{}, domain.NewError(domain.KindCorruptPatch, "patchengine.decodeRecord", err)
		}
		return domain.ChangeRecord{Action: action, Path: path, Offset: offset, Content: content}, nil
	default:
		return domain.ChangeRecord{}, domain.NewError(domain.KindCorruptPatch, "patchengine.decodeRecord", fmt.Errorf("unknown action %q", action))
	}
}
