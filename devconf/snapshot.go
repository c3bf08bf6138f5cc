package devconf

import (
	"fmt"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

var (
	snapshotEncMode cbor.EncMode
	snapshotDecMode cbor.DecMode
)

func init() {
	var err error

	// Canonical encoding so equal snapshots are byte-identical and diffable.
	encOpts := cbor.CanonicalEncOptions()
	encOpts.Time = cbor.TimeRFC3339Nano
	snapshotEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create snapshot CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}
	snapshotDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create snapshot CBOR decoder mode: %v", err))
	}
}

// Snapshot is the configuration read back from a set of devices.
type Snapshot struct {
	TakenAt time.Time `cbor:"takenAt"`
	Devices []Device  `cbor:"devices"`
}

// File returns the snapshot as a robot file, ready to be applied again.
func (s Snapshot) File() *File {
	return &File{Devices: append([]Device(nil), s.Devices...)}
}

// EncodeSnapshot encodes s as canonical CBOR.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	return snapshotEncMode.Marshal(s)
}

// DecodeSnapshot decodes a snapshot written by EncodeSnapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := snapshotDecMode.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("devconf: decode snapshot: %w", err)
	}
	return s, nil
}

// WriteSnapshot encodes s to path.
func WriteSnapshot(path string, s Snapshot) error {
	data, err := EncodeSnapshot(s)
	if err != nil {
		return fmt.Errorf("devconf: encode snapshot: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSnapshot decodes the snapshot stored at path.
func ReadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("devconf: %w", err)
	}
	return DecodeSnapshot(data)
}
