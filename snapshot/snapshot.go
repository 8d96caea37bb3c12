// Package snapshot persists treetable maps to a bbolt database and restores
// them. It is a collaborator layered entirely on the table's public
// iteration and insertion surface; the table itself defines no storage
// format.
//
// Keys and values are stored as their JSON encodings, one bolt key/value
// pair per entry. Since table keys are unique under the table's equivalence
// predicate, their encodings are unique bolt keys for any encoding that is
// deterministic, which encoding/json is for the supported key types.
package snapshot

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/skjern/treetable"
)

// Save writes a snapshot of m into the named bolt bucket, replacing any
// previous snapshot stored there. A structural change to m while Save is
// iterating aborts the transaction.
func Save[K comparable, V any](db *bolt.DB, name []byte, m *treetable.Map[K, V]) error {
	return db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(name) != nil {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket(name)
		if err != nil {
			return err
		}
		var entryErr error
		rangeErr := m.Range(func(k K, v V) bool {
			var kb, vb []byte
			if kb, entryErr = json.Marshal(k); entryErr != nil {
				return false
			}
			if vb, entryErr = json.Marshal(v); entryErr != nil {
				return false
			}
			entryErr = b.Put(kb, vb)
			return entryErr == nil
		})
		if entryErr != nil {
			return entryErr
		}
		return rangeErr
	})
}

// Load reads the snapshot in the named bolt bucket and inserts its entries
// into m, which the caller constructs (and may have configured with a custom
// hasher). Existing entries under the same keys are replaced.
func Load[K comparable, V any](db *bolt.DB, name []byte, m *treetable.Map[K, V]) error {
	return db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(name)
		if b == nil {
			return fmt.Errorf("snapshot: bucket %q not found", name)
		}
		return b.ForEach(func(kb, vb []byte) error {
			var k K
			var v V
			if err := json.Unmarshal(kb, &k); err != nil {
				return err
			}
			if err := json.Unmarshal(vb, &v); err != nil {
				return err
			}
			m.Put(k, v)
			return nil
		})
	})
}
