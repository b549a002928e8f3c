// Package storage provides the string-keyed, string-valued persistent store
// the board snapshots its collection into.
package storage

import "context"

// Store is the persistent key-value port. Get reports ok=false when the key
// has never been written.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}
