/*
store.go - Blob persistence boundary

PURPOSE:
  Some backends keep each collection (records, users) as one serialized
  blob under a fixed key. This interface is that boundary, so a
  whole-collection backend (store/jsonfile) and a row-level one
  (store/sqlite) are interchangeable behind the domain stores.

CONTRACT:
  Load(key, &v): found=false and a nil error when the key was never saved.
  Save(key, v):  replaces the whole blob. Last writer wins; no merge.

SEE ALSO:
  - remittance/store.go: record repository interface
  - store/jsonfile: file-backed KeyValue implementation
*/
package generic

import "context"

// Collection keys used by the blob backends.
const (
	KeyRecords = "retirementRecords"
	KeyUsers   = "users"
)

// KeyValue persists opaque JSON-compatible values under fixed keys.
type KeyValue interface {
	Load(ctx context.Context, key string, v any) (found bool, err error)
	Save(ctx context.Context, key string, v any) error
}
