package models

import "time"

// IndexStats describes the published index and the store behind it.
type IndexStats struct {
	Documents   int64          `json:"documents"`
	IndexSize   int            `json:"index_size"`
	Dimensions  int            `json:"dimensions"`
	Fingerprint string         `json:"fingerprint,omitempty"`
	BuiltAt     *time.Time     `json:"built_at,omitempty"`
	LastRefresh *RefreshReport `json:"last_refresh,omitempty"`
}
