package ast

import "slices"

// KeyValue is one entry of an attribute table.
type KeyValue struct {
	Key   string
	Value string
}

// Attr is the identifier, classes and key/value table shared by many nodes.
type Attr struct {
	ID      string
	Classes []string
	KVs     []KeyValue
}

// HasClass reports whether class is present.
func (a *Attr) HasClass(class string) bool {
	return slices.Contains(a.Classes, class)
}

// Get returns the first value for key.
func (a *Attr) Get(key string) (string, bool) {
	for _, kv := range a.KVs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Value returns the first value for key or "".
func (a *Attr) Value(key string) string {
	v, _ := a.Get(key)
	return v
}

// Set replaces the first value for key, or appends a new pair.
func (a *Attr) Set(key, value string) {
	for i := range a.KVs {
		if a.KVs[i].Key == key {
			a.KVs[i].Value = value
			return
		}
	}
	a.KVs = append(a.KVs, KeyValue{Key: key, Value: value})
}

// Ensure sets key only when it is missing or empty. It reports whether the
// attribute table changed.
func (a *Attr) Ensure(key, value string) bool {
	if value == "" {
		return false
	}
	for i := range a.KVs {
		if a.KVs[i].Key != key {
			continue
		}
		if a.KVs[i].Value != "" {
			return false
		}
		a.KVs[i].Value = value
		return true
	}
	a.KVs = append(a.KVs, KeyValue{Key: key, Value: value})
	return true
}

// Remove drops every pair whose key is listed. It reports whether anything
// was removed.
func (a *Attr) Remove(keys ...string) bool {
	before := len(a.KVs)
	a.KVs = slices.DeleteFunc(a.KVs, func(kv KeyValue) bool {
		return slices.Contains(keys, kv.Key)
	})
	return len(a.KVs) != before
}
