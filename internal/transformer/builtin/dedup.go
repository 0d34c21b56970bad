package builtin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"

	"scantransfer/pkg/records"
)

// DeDup collapses intra-batch duplicates by a configured business key before
// rows reach the warehouse, reducing write amplification. The database keeps
// its UNIQUE constraints as a backstop.
//
// Policies:
//
//   - "keep-first"    : keep the earliest occurrence in the batch
//   - "keep-last"     : keep the latest occurrence in the batch (default)
//   - "most-complete" : keep the record with the most non-empty fields;
//     ties break by keep-last
//
// A record's key is the xxh3 hash of its key field values joined with \x1f
// (nil encoded as \x00). Records missing a key field are passed through
// untouched, appended after the winners in original order. Run DeDup after
// Clean so key values are in their normalized form.
type DeDup struct {
	Keys   []string
	Policy string
}

// Apply returns a new slice containing only the winning record per key, in
// ascending original-position order, followed by pass-through records.
func (d DeDup) Apply(in []records.Record) []records.Record {
	if len(in) == 0 || len(d.Keys) == 0 {
		return in
	}

	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	if policy == "" {
		policy = "keep-last"
	}

	var b strings.Builder
	keyOf := func(r records.Record) (uint64, bool) {
		b.Reset()
		for i, k := range d.Keys {
			v, ok := r[k]
			if !ok {
				return 0, false
			}
			if i > 0 {
				b.WriteByte(0x1f)
			}
			switch t := v.(type) {
			case nil:
				b.WriteByte(0x00)
			case string:
				b.WriteString(t)
			default:
				fmt.Fprint(&b, t)
			}
		}
		return xxh3.HashString(b.String()), true
	}

	type slot struct {
		rec   records.Record
		index int
		score int
	}

	winners := make(map[uint64]slot, len(in))
	for i, r := range in {
		key, ok := keyOf(r)
		if !ok {
			continue
		}
		switch policy {
		case "keep-first":
			if _, exists := winners[key]; !exists {
				winners[key] = slot{rec: r, index: i}
			}
		case "most-complete":
			s := slot{rec: r, index: i, score: completeness(r)}
			prev, exists := winners[key]
			if !exists || s.score > prev.score || (s.score == prev.score && s.index > prev.index) {
				winners[key] = s
			}
		default: // keep-last
			winners[key] = slot{rec: r, index: i}
		}
	}

	out := make([]records.Record, 0, len(winners))
	ordered := make([]slot, 0, len(winners))
	for _, s := range winners {
		ordered = append(ordered, s)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].index < ordered[j].index })
	for _, s := range ordered {
		out = append(out, s.rec)
	}

	for _, r := range in {
		if _, ok := keyOf(r); !ok {
			out = append(out, r)
		}
	}
	return out
}

// completeness counts non-nil, non-empty fields.
func completeness(r records.Record) int {
	n := 0
	for _, v := range r {
		if v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		n++
	}
	return n
}
