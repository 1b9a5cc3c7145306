package vector

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/BiradarScripts/Djaan/internal/models"
)

// ErrStaleIndex is returned by Load when the persisted index was built from a different
// store generation than the records it is resolved against.
var ErrStaleIndex = errors.New("persisted index is stale")

var fileMagic = [4]byte{'D', 'J', 'V', 'X'}

const fileVersion uint16 = 1

// Save writes snap to path atomically: a temp file in the same directory is renamed over path.
// Layout (little endian): magic, version u16, built_at unix nanos i64, fingerprint len u16 + bytes,
// dimensions u32, count u32, then per slot: filename len u32 + bytes, dimensions float32 values.
func Save(path string, snap *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := writeSnapshot(w, snap); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush index file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename index file: %w", err)
	}
	return nil
}

func writeSnapshot(w io.Writer, snap *Snapshot) error {
	le := binary.LittleEndian
	header := []any{
		fileMagic,
		fileVersion,
		snap.BuiltAt.UnixNano(),
		uint16(len(snap.Fingerprint)),
	}
	for _, v := range header {
		if err := binary.Write(w, le, v); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if _, err := io.WriteString(w, snap.Fingerprint); err != nil {
		return fmt.Errorf("write fingerprint: %w", err)
	}
	dims := 0
	if snap.Index != nil {
		dims = snap.Index.Dimensions()
	}
	if err := binary.Write(w, le, [2]uint32{uint32(dims), uint32(snap.Len())}); err != nil {
		return fmt.Errorf("write sizes: %w", err)
	}
	buf := make([]byte, dims*4)
	for slot, rec := range snap.Slots {
		if err := binary.Write(w, le, uint32(len(rec.Filename))); err != nil {
			return fmt.Errorf("write filename len: %w", err)
		}
		if _, err := io.WriteString(w, rec.Filename); err != nil {
			return fmt.Errorf("write filename: %w", err)
		}
		for i, v := range snap.Index.vector(slot) {
			le.PutUint32(buf[i*4:], math.Float32bits(v))
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load reads the snapshot at path and resolves its filenames against records, which must be
// the current store contents. A missing file returns an error matching os.ErrNotExist; a
// fingerprint or membership difference returns ErrStaleIndex.
func Load(path string, records []*models.DocumentRecord) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)
	le := binary.LittleEndian

	var magic [4]byte
	var version uint16
	var builtAt int64
	var fpLen uint16
	for _, v := range []any{&magic, &version, &builtAt, &fpLen} {
		if err := binary.Read(r, le, v); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
	}
	if magic != fileMagic {
		return nil, fmt.Errorf("read header: not an index file")
	}
	if version != fileVersion {
		return nil, fmt.Errorf("read header: unsupported version %d", version)
	}
	fp := make([]byte, fpLen)
	if _, err := io.ReadFull(r, fp); err != nil {
		return nil, fmt.Errorf("read fingerprint: %w", err)
	}
	if string(fp) != Fingerprint(records) {
		return nil, ErrStaleIndex
	}
	var sizes [2]uint32
	if err := binary.Read(r, le, &sizes); err != nil {
		return nil, fmt.Errorf("read sizes: %w", err)
	}
	dims, count := int(sizes[0]), int(sizes[1])
	if count != len(records) {
		return nil, fmt.Errorf("%w: file has %d slots, store has %d records", ErrStaleIndex, count, len(records))
	}

	byName := make(map[string]*models.DocumentRecord, len(records))
	for _, rec := range records {
		byName[rec.Filename] = rec
	}
	index := NewFlatIndex(dims)
	slots := make([]*models.DocumentRecord, 0, count)
	buf := make([]byte, dims*4)
	for i := 0; i < count; i++ {
		var nameLen uint32
		if err := binary.Read(r, le, &nameLen); err != nil {
			return nil, fmt.Errorf("read filename len: %w", err)
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, fmt.Errorf("read filename: %w", err)
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("read vector: %w", err)
		}
		rec, ok := byName[string(name)]
		if !ok || rec.Dimensions() != dims {
			return nil, fmt.Errorf("%w: slot %d (%s) does not match the store", ErrStaleIndex, i, name)
		}
		vec := make([]float32, dims)
		for j := range vec {
			vec[j] = math.Float32frombits(le.Uint32(buf[j*4:]))
		}
		if _, err := index.Add(vec); err != nil {
			return nil, err
		}
		slots = append(slots, rec)
		delete(byName, rec.Filename)
	}
	return &Snapshot{
		Index:       index,
		Slots:       slots,
		Fingerprint: string(fp),
		BuiltAt:     time.Unix(0, builtAt),
	}, nil
}
