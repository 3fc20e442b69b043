package partition

import "hash/fnv"

// Count is the fixed number of shards keys are spread over.
const Count = 256

// For returns the shard for a record key.
// Stable and deterministic: the same key always maps to the same shard.
func For(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % Count)
}
