// Package meshstore caches generated tree meshes and their stats by key.
package meshstore

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"strconv"
	"strings"
	"time"

	"arborgen/internal/geometry"
	"arborgen/internal/species"
)

// Entry is one cached tree. Stats keeps the turtle counts that cannot be
// recovered from the mesh alone.
type Entry struct {
	Mesh  geometry.Mesh
	Stats species.Stats
}

// Store persists entries. Implementations are safe for concurrent use and
// never hand out slices that alias their own storage.
type Store interface {
	// Load returns domain.ErrMeshNotFound for unknown keys.
	Load(ctx context.Context, key string) (Entry, error)
	Save(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
	// Keys returns stored keys in sorted order.
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Key builds the cache key for one species instance. fingerprint
// distinguishes templates that share a name but differ in parameters.
func Key(species string, seed int64, fingerprint string) string {
	var b strings.Builder
	b.WriteString(species)
	b.WriteByte(':')
	b.WriteString(strconv.FormatInt(seed, 10))
	if fingerprint != "" {
		b.WriteByte(':')
		b.WriteString(fingerprint)
	}
	return b.String()
}

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendDisk   = "disk"
	BackendRedis  = "redis"
)

// Options select and configure a backend.
type Options struct {
	Backend       string
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string
	TTL           time.Duration
}

// Open builds the configured store. BackendNone and "" return a nil Store.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendMemory:
		return NewMemory(), nil
	case BackendDisk:
		disk, err := OpenDisk(opts.Path)
		if err != nil {
			return nil, err
		}
		return disk, nil
	case BackendRedis:
		var ropts []Option
		if opts.Prefix != "" {
			ropts = append(ropts, WithPrefix(opts.Prefix))
		}
		if opts.TTL > 0 {
			ropts = append(ropts, WithTTL(opts.TTL))
		}
		store := NewRedis(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, ropts...)
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown mesh store backend %q", opts.Backend)
	}
}

func encodeEntry(entry Entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return nil, fmt.Errorf("encode mesh: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeEntry(payload []byte) (Entry, error) {
	var entry Entry
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&entry); err != nil {
		return Entry{}, fmt.Errorf("decode mesh: %w", err)
	}
	return entry, nil
}

func cloneEntry(e Entry) Entry {
	e.Mesh.Positions = append([]float32(nil), e.Mesh.Positions...)
	e.Mesh.Normals = append([]float32(nil), e.Mesh.Normals...)
	e.Mesh.Indices = append([]uint32(nil), e.Mesh.Indices...)
	return e
}
