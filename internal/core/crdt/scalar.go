package crdt

import "sort"

// ScalarWrite is one local key to overwrite with a remote value.
type ScalarWrite struct {
	Key   string
	Value string
}

// OverwriteScalars returns the writes needed to make local agree with remote
// for every key present in remote. Keys rejected by accept are ignored; a nil
// accept admits every key. Keys absent from remote are never deleted.
// Writes are sorted by key.
func OverwriteScalars(remote, local map[string]string, accept func(key string) bool) []ScalarWrite {
	var writes []ScalarWrite
	for key, value := range remote {
		if accept != nil && !accept(key) {
			continue
		}
		if cur, ok := local[key]; ok && cur == value {
			continue
		}
		writes = append(writes, ScalarWrite{Key: key, Value: value})
	}
	sort.Slice(writes, func(i, j int) bool { return writes[i].Key < writes[j].Key })
	return writes
}
