// Compressed world snapshots: a portable single-file export of the full
// simulation state, checksummed so a truncated or tampered file is rejected
// before any of it is applied.
package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"

	"github.com/talgya/hegemon/internal/coalition"
	"github.com/talgya/hegemon/internal/event"
	"github.com/talgya/hegemon/internal/nation"
	"github.com/talgya/hegemon/internal/war"
)

// Snapshot is the full serializable world state.
type Snapshot struct {
	Tick       uint64                 `json:"tick"`
	Nations    []*nation.Nation       `json:"nations"`
	Wars       []*war.War             `json:"wars"`
	Coalitions []*coalition.Coalition `json:"coalitions"`
	Events     []event.Event          `json:"events"`
}

var snapshotMagic = [4]byte{'H', 'G', 'S', 'N'}

const snapshotVersion = 1

// checksumSize is the blake3 digest length prefixing the payload.
const checksumSize = 32

// WriteSnapshot serializes, compresses, and checksums a snapshot into w.
// Layout: magic(4) version(1) blake3(32) lz4-frame(payload).
func WriteSnapshot(w io.Writer, s *Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	var compressed bytes.Buffer
	zw := lz4.NewWriter(&compressed)
	if _, err := zw.Write(payload); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}

	sum := blake3.Sum256(compressed.Bytes())

	if _, err := w.Write(snapshotMagic[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{snapshotVersion}); err != nil {
		return err
	}
	if _, err := w.Write(sum[:]); err != nil {
		return err
	}
	_, err = w.Write(compressed.Bytes())
	return err
}

// ReadSnapshot verifies and decodes a snapshot written by WriteSnapshot.
// Any mismatch — bad magic, unknown version, checksum failure — rejects the
// whole file; no partial state is ever returned.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	header := make([]byte, 4+1+checksumSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("read snapshot header: %w", err)
	}
	if !bytes.Equal(header[:4], snapshotMagic[:]) {
		return nil, fmt.Errorf("not a snapshot file")
	}
	if header[4] != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", header[4])
	}

	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read snapshot body: %w", err)
	}
	sum := blake3.Sum256(compressed)
	if !bytes.Equal(sum[:], header[5:5+checksumSize]) {
		return nil, fmt.Errorf("snapshot checksum mismatch")
	}

	zr := lz4.NewReader(bytes.NewReader(compressed))
	payload, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}

	var s Snapshot
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

// ExportSnapshot writes a snapshot file atomically via a temp file rename.
func ExportSnapshot(path string, s *Snapshot) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := WriteSnapshot(f, s); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// ImportSnapshot reads and verifies a snapshot file.
func ImportSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSnapshot(f)
}
