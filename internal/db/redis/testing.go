package redis

import "github.com/redis/rueidis"

// NewStoreForTest wraps a (mock) rueidis client in a Store. Test helper only.
func NewStoreForTest(client rueidis.Client) *Store {
	return &Store{client: client}
}
