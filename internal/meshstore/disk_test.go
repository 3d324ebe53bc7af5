package meshstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"cogentcore.org/core/math32"

	"arborgen/internal/domain"
	"arborgen/internal/geometry"
	"arborgen/internal/species"
	"arborgen/internal/turtle"
)

func sampleEntry() Entry {
	mesh := geometry.Build([]turtle.Segment{{
		Start:       math32.Vec3(0, 0, 0),
		End:         math32.Vec3(0, 2, 0),
		StartRadius: 0.2,
		EndRadius:   0.1,
	}}, nil, geometry.DefaultOptions())
	return Entry{Mesh: mesh, Stats: species.Stats{Species: "oak", Seed: 1, Segments: 1, Height: 2}}
}

func TestDiskRebuildsIndexOnOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "meshes.log")
	entry := sampleEntry()

	store, err := OpenDisk(path)
	if err != nil {
		t.Fatalf("OpenDisk: %v", err)
	}
	if err := store.Save(ctx, "oak:1", entry); err != nil {
		t.Fatalf("Save oak: %v", err)
	}
	if err := store.Save(ctx, "pine:2", entry); err != nil {
		t.Fatalf("Save pine: %v", err)
	}
	if err := store.Delete(ctx, "pine:2"); err != nil {
		t.Fatalf("Delete pine: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenDisk(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if len(reopened.records) != 1 {
		t.Fatalf("expected 1 record after replay, got %d", len(reopened.records))
	}
	got, err := reopened.Load(ctx, "oak:1")
	if err != nil {
		t.Fatalf("Load oak: %v", err)
	}
	if !reflect.DeepEqual(got, entry) {
		t.Fatalf("entry mismatch after reopen")
	}
	if _, err := reopened.Load(ctx, "pine:2"); !errors.Is(err, domain.ErrMeshNotFound) {
		t.Fatalf("expected deleted mesh to stay deleted, got %v", err)
	}
}

func TestDiskRejectsTruncatedLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshes.log")
	if err := os.WriteFile(path, []byte{diskOpSet, 1, 0}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := OpenDisk(path); err == nil {
		t.Fatalf("expected truncated header error")
	}
}

func TestDiskRequiresPath(t *testing.T) {
	_, err := OpenDisk("")
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
}
