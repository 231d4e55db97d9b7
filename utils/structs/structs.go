// Package structs implements helpers to generalize vectors of structs, as well as their serialization.
package structs

// CopyNewer is implemented by objects that can return a deep copy of themselves.
type CopyNewer[V any] interface {
	CopyNew() *V
}

// BinarySizer is implemented by objects that know their serialized size.
type BinarySizer interface {
	BinarySize() int
}

// Equatable is implemented by objects that can be deep-compared.
type Equatable[T any] interface {
	Equal(*T) bool
}
