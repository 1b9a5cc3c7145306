package vector

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/BiradarScripts/Djaan/internal/models"
)

// Snapshot is an immutable index plus the records its slots map to.
// Slot i of Index corresponds to Slots[i]. Slot numbers are only meaningful within one snapshot.
type Snapshot struct {
	Index       *FlatIndex
	Slots       []*models.DocumentRecord
	Fingerprint string
	BuiltAt     time.Time
}

// Len returns the number of indexed documents.
func (s *Snapshot) Len() int {
	if s == nil || s.Index == nil {
		return 0
	}
	return s.Index.Len()
}

// Record resolves a slot returned by Search. NoSlot and out-of-range slots report false.
func (s *Snapshot) Record(slot int) (*models.DocumentRecord, bool) {
	if s == nil || slot < 0 || slot >= len(s.Slots) {
		return nil, false
	}
	return s.Slots[slot], true
}

// Build creates a snapshot from records, normalizing every embedding.
// All records must share one dimension; otherwise ErrDimensionMismatch is returned.
func Build(records []*models.DocumentRecord) (*Snapshot, error) {
	dims := 0
	if len(records) > 0 {
		dims = records[0].Dimensions()
	}
	index := NewFlatIndex(dims)
	slots := make([]*models.DocumentRecord, 0, len(records))
	for _, rec := range records {
		if _, err := index.Add(Normalize(rec.Embedding)); err != nil {
			return nil, fmt.Errorf("add %s: %w", rec.Filename, err)
		}
		slots = append(slots, rec)
	}
	return &Snapshot{
		Index:       index,
		Slots:       slots,
		Fingerprint: Fingerprint(records),
		BuiltAt:     time.Now(),
	}, nil
}

// Fingerprint identifies a store generation: SHA-256 over the sorted
// (filename, content hash, model) triples.
func Fingerprint(records []*models.DocumentRecord) string {
	triples := make([][3]string, len(records))
	for i, rec := range records {
		triples[i] = [3]string{rec.Filename, rec.ContentHash, rec.Model}
	}
	sort.Slice(triples, func(i, j int) bool { return triples[i][0] < triples[j][0] })

	h := sha256.New()
	for _, t := range triples {
		h.Write([]byte(t[0]))
		h.Write([]byte{0})
		h.Write([]byte(t[1]))
		h.Write([]byte{0})
		h.Write([]byte(t[2]))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
