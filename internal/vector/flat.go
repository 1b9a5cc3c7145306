// Package vector builds and persists the exact inner-product index searched at query time.
package vector

import (
	"errors"
	"fmt"
	"sort"

	"github.com/BiradarScripts/Djaan/pkg/utils"
)

// NoSlot is the slot returned by a failed Add. It never resolves to a record.
const NoSlot = -1

// ErrDimensionMismatch is returned when a vector does not match the index dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// FlatIndex is a brute-force inner-product index. Slots are assigned in insertion order.
// It is not safe for concurrent Add; Search may run concurrently once building is done.
type FlatIndex struct {
	dimensions int
	vectors    [][]float32
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dimensions int) *FlatIndex {
	return &FlatIndex{dimensions: dimensions}
}

// Normalize returns a unit-length copy of v. A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	return utils.NormalizedCopy(v)
}

// Add appends a copy of vec and returns its slot.
func (x *FlatIndex) Add(vec []float32) (int, error) {
	if len(vec) != x.dimensions {
		return NoSlot, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vec), x.dimensions)
	}
	stored := make([]float32, len(vec))
	copy(stored, vec)
	x.vectors = append(x.vectors, stored)
	return len(x.vectors) - 1, nil
}

// Search returns up to k slots with their inner-product scores, best first.
// Ties keep slot order. Scores are clamped to [-1, 1]. When k exceeds Len every slot is
// returned; result size is bounded by Len, never by k.
func (x *FlatIndex) Search(query []float32, k int) ([]int, []float64, error) {
	if k <= 0 {
		return []int{}, []float64{}, nil
	}
	if len(x.vectors) > 0 && len(query) != x.dimensions {
		return nil, nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(query), x.dimensions)
	}

	order := make([]int, len(x.vectors))
	all := make([]float64, len(x.vectors))
	for slot, vec := range x.vectors {
		order[slot] = slot
		all[slot] = clamp(dot(query, vec))
	}
	sort.SliceStable(order, func(i, j int) bool { return all[order[i]] > all[order[j]] })

	n := min(k, len(order))
	slots := order[:n]
	scores := make([]float64, n)
	for i, slot := range slots {
		scores[i] = all[slot]
	}
	return slots, scores, nil
}

// Len returns the number of indexed vectors.
func (x *FlatIndex) Len() int {
	return len(x.vectors)
}

// Dimensions returns the vector dimension.
func (x *FlatIndex) Dimensions() int {
	return x.dimensions
}

func (x *FlatIndex) vector(slot int) []float32 {
	return x.vectors[slot]
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// clamp keeps float rounding on unit vectors inside the cosine range.
func clamp(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
