package meshstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"arborgen/internal/domain"
)

const (
	diskOpDelete byte = 0
	diskOpSet    byte = 1

	diskHeaderSize = 9
)

type diskRecord struct {
	offset int64
	keyLen uint32
	size   uint32
}

// Disk is an append-only log of gob-encoded meshes. Each record is a 9 byte
// header (op, key length, payload length) followed by the key and payload.
// The index is rebuilt from the log on open; the last record for a key wins.
type Disk struct {
	file    *os.File
	mu      sync.RWMutex
	records map[string]diskRecord
}

// OpenDisk opens or creates the log at path.
func OpenDisk(path string) (*Disk, error) {
	if path == "" {
		return nil, domain.Invalid("cache.path", "must be set for the disk backend")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open mesh log: %w", err)
	}
	d := &Disk{file: f, records: make(map[string]diskRecord)}
	if err := d.loadIndex(); err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

func (d *Disk) loadIndex() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind mesh log: %w", err)
	}

	header := make([]byte, diskHeaderSize)
	var offset int64
	for {
		if _, err := io.ReadFull(d.file, header); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("truncated mesh header at %d: %w", offset, err)
			}
			return fmt.Errorf("read mesh header: %w", err)
		}
		op := header[0]
		keyLen := binary.LittleEndian.Uint32(header[1:5])
		size := binary.LittleEndian.Uint32(header[5:9])

		key := make([]byte, keyLen)
		if _, err := io.ReadFull(d.file, key); err != nil {
			return fmt.Errorf("read mesh key at %d: %w", offset, err)
		}
		if _, err := d.file.Seek(int64(size), io.SeekCurrent); err != nil {
			return fmt.Errorf("seek past payload: %w", err)
		}

		switch op {
		case diskOpSet:
			d.records[string(key)] = diskRecord{offset: offset, keyLen: keyLen, size: size}
		case diskOpDelete:
			delete(d.records, string(key))
		default:
			return fmt.Errorf("unknown mesh log op %d at %d", op, offset)
		}
		offset += diskHeaderSize + int64(keyLen) + int64(size)
	}
	return nil
}

func (d *Disk) Load(_ context.Context, key string) (Entry, error) {
	d.mu.RLock()
	rec, ok := d.records[key]
	d.mu.RUnlock()
	if !ok {
		return Entry{}, domain.ErrMeshNotFound
	}

	payload := make([]byte, rec.size)
	start := rec.offset + diskHeaderSize + int64(rec.keyLen)
	if _, err := d.file.ReadAt(payload, start); err != nil {
		return Entry{}, fmt.Errorf("read mesh payload at %d: %w", start, err)
	}
	return decodeEntry(payload)
}

func (d *Disk) Save(_ context.Context, key string, entry Entry) error {
	payload, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	offset, err := d.append(diskOpSet, key, payload)
	if err != nil {
		return err
	}
	d.records[key] = diskRecord{offset: offset, keyLen: uint32(len(key)), size: uint32(len(payload))}
	return nil
}

func (d *Disk) Delete(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.records[key]; !ok {
		return nil
	}
	if _, err := d.append(diskOpDelete, key, nil); err != nil {
		return err
	}
	delete(d.records, key)
	return nil
}

// append writes one record and returns its offset. The caller holds mu.
func (d *Disk) append(op byte, key string, payload []byte) (int64, error) {
	record := make([]byte, diskHeaderSize, diskHeaderSize+len(key)+len(payload))
	record[0] = op
	binary.LittleEndian.PutUint32(record[1:5], uint32(len(key)))
	binary.LittleEndian.PutUint32(record[5:9], uint32(len(payload)))
	record = append(record, key...)
	record = append(record, payload...)

	offset, err := d.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("seek mesh log end: %w", err)
	}
	if _, err := d.file.Write(record); err != nil {
		return 0, fmt.Errorf("write mesh record: %w", err)
	}
	if err := d.file.Sync(); err != nil {
		return 0, fmt.Errorf("sync mesh log: %w", err)
	}
	return offset, nil
}

func (d *Disk) Keys(_ context.Context) ([]string, error) {
	d.mu.RLock()
	keys := make([]string, 0, len(d.records))
	for k := range d.records {
		keys = append(keys, k)
	}
	d.mu.RUnlock()
	sort.Strings(keys)
	return keys, nil
}

func (d *Disk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file.Close()
}
