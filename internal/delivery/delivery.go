// Package delivery answers whether the store ships to a pincode. Serviceable pincodes are
// published as gzipped lists, one per region, loaded from S3 or the local file system.
package delivery

import (
	"context"
)

// Set is a read-only set of pincodes.
type Set interface {
	Contains(pincode string) bool
	Size() int
}

// Loader reads one gzipped pincode list.
type Loader interface {
	Load(ctx context.Context, path string) (Set, error)
}

type mapSet struct {
	pincodes map[string]struct{}
}

func newMapSet(capacity int) *mapSet {
	return &mapSet{pincodes: make(map[string]struct{}, capacity)}
}

func (s *mapSet) Contains(pincode string) bool {
	_, ok := s.pincodes[pincode]
	return ok
}

func (s *mapSet) Size() int {
	return len(s.pincodes)
}

func (s *mapSet) add(pincode string) {
	s.pincodes[pincode] = struct{}{}
}
