package patchengine

import "github.com/benjaminpreiss/git-vault/internal/domain"

// byteRun is a half-open range [start, end) of a byte slice.
type byteRun struct {
	start, end int
}

// chunkBinDiff computes the BINDIFF records that would turn prev into cur
// by overwriting ranges in place, per spec §4.4. It returns ok=false when
// BINDIFF cannot represent the change at all (the lengths differ — an
// overwrite can never grow or shrink a file) or when the resulting payload
// would not undercut a single MODIFY, in which case the caller must fall
// back to MODIFY.
func chunkBinDiff(prev, cur []byte) (records []domain.ChangeRecord, ok bool) {
	if len(prev) != len(cur) {
		return nil, false
	}

	positions := diffPositions(prev, cur)
	if len(positions) == 0 {
		return nil, false
	}

	runs := splitRuns(mergeRuns(buildRuns(positions), mergeGap), maxRunLength)

	payloadBytes := 0
	records = make([]domain.ChangeRecord, 0, len(runs))
	for _, r := range runs {
		chunk := cur[r.start:r.end]
		records = append(records, domain.ChangeRecord{
			Action:  domain.ActionBinDiff,
			Offset:  int64(r.start),
			Content: chunk,
		})
		payloadBytes += len(chunk)
	}

	if payloadBytes >= len(cur) {
		return nil, false
	}
	return records, true
}

// diffPositions returns the indices where prev and cur differ, byte for
// byte, over their shared length.
func diffPositions(prev, cur []byte) []int {
	n := len(prev)
	if len(cur) < n {
		n = len(cur)
	}
	var positions []int
	for i := 0; i < n; i++ {
		if prev[i] != cur[i] {
			positions = append(positions, i)
		}
	}
	return positions
}

// buildRuns groups strictly consecutive differing positions into runs.
func buildRuns(positions []int) []byteRun {
	var runs []byteRun
	i := 0
	for i < len(positions) {
		start := positions[i]
		end := start + 1
		j := i + 1
		for j < len(positions) && positions[j] == end {
			end++
			j++
		}
		runs = append(runs, byteRun{start: start, end: end})
		i = j
	}
	return runs
}

// mergeRuns coalesces runs whose gap is within maxGap bytes — runs close
// enough are cheaper to coalesce than to re-encode as separate records.
func mergeRuns(runs []byteRun, maxGap int) []byteRun {
	if len(runs) == 0 {
		return nil
	}
	merged := []byteRun{runs[0]}
	for _, r := range runs[1:] {
		last := &merged[len(merged)-1]
		if r.start-last.end <= maxGap {
			last.end = r.end
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// splitRuns breaks any run longer than maxLen into sub-runs of at most
// maxLen bytes each.
func splitRuns(runs []byteRun, maxLen int) []byteRun {
	var out []byteRun
	for _, r := range runs {
		for s := r.start; s < r.end; s += maxLen {
			e := s + maxLen
			if e > r.end {
				e = r.end
			}
			out = append(out, byteRun{start: s, end: e})
		}
	}
	return out
}
