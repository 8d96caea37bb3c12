package snapshot

import (
	"path/filepath"
	"reflect"
	"testing"

	bolt "go.etcd.io/bbolt"

	"github.com/skjern/treetable"
)

func openTestDB(t *testing.T) *bolt.DB {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "snapshot.db"), 0644, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db := openTestDB(t)
	m, err := treetable.New[string, int]()
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]int{"alpha": 1, "beta": 2, "gamma": 3}
	m.FromMap(want)

	if err := Save(db, []byte("tables/main"), m); err != nil {
		t.Fatal(err)
	}

	restored, err := treetable.New[string, int]()
	if err != nil {
		t.Fatal(err)
	}
	if err := Load(db, []byte("tables/main"), restored); err != nil {
		t.Fatal(err)
	}
	if got := restored.ToMap(); !reflect.DeepEqual(got, want) {
		t.Fatalf("restored %v, want %v", got, want)
	}
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	db := openTestDB(t)
	m, _ := treetable.New[string, int]()
	m.Put("old", 1)
	if err := Save(db, []byte("t"), m); err != nil {
		t.Fatal(err)
	}

	m.Remove("old")
	m.Put("new", 2)
	if err := Save(db, []byte("t"), m); err != nil {
		t.Fatal(err)
	}

	restored, _ := treetable.New[string, int]()
	if err := Load(db, []byte("t"), restored); err != nil {
		t.Fatal(err)
	}
	if restored.HasKey("old") {
		t.Fatal("stale entry survived re-save")
	}
	if v, ok := restored.Get("new"); !ok || v != 2 {
		t.Fatalf("Get(new) = %d, %v", v, ok)
	}
}

func TestLoadMissingBucket(t *testing.T) {
	db := openTestDB(t)
	m, _ := treetable.New[string, int]()
	if err := Load(db, []byte("nope"), m); err == nil {
		t.Fatal("missing bucket loaded without error")
	}
	if m.Size() != 0 {
		t.Fatalf("failed load left %d entries", m.Size())
	}
}

func TestSaveStructValues(t *testing.T) {
	type point struct {
		X, Y int
	}
	db := openTestDB(t)
	m, _ := treetable.New[int, point]()
	for i := 0; i < 100; i++ {
		m.Put(i, point{X: i, Y: -i})
	}
	if err := Save(db, []byte("points"), m); err != nil {
		t.Fatal(err)
	}
	restored, _ := treetable.New[int, point]()
	if err := Load(db, []byte("points"), restored); err != nil {
		t.Fatal(err)
	}
	if restored.Size() != 100 {
		t.Fatalf("restored %d entries", restored.Size())
	}
	for i := 0; i < 100; i++ {
		if v, ok := restored.Get(i); !ok || v != (point{X: i, Y: -i}) {
			t.Fatalf("Get(%d) = %+v, %v", i, v, ok)
		}
	}
}
