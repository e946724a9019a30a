package hashset

import (
	"sort"
	"strings"

	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// HashSet is an unordered set of block hashes
type HashSet map[externalapi.DomainHash]struct{}

// New returns an empty HashSet
func New() HashSet {
	return HashSet{}
}

// NewFromSlice returns the set of the given hashes
func NewFromSlice(hashes ...*externalapi.DomainHash) HashSet {
	set := make(HashSet, len(hashes))
	for _, hash := range hashes {
		set.Add(hash)
	}
	return set
}

// String lists the hashes in ascending order
func (hs HashSet) String() string {
	sorted := hs.ToSortedSlice()
	hashStrings := make([]string, len(sorted))
	for i, hash := range sorted {
		hashStrings[i] = hash.String()
	}
	return "[" + strings.Join(hashStrings, ", ") + "]"
}

func (hs HashSet) Add(hash *externalapi.DomainHash) {
	hs[*hash] = struct{}{}
}

func (hs HashSet) Contains(hash *externalapi.DomainHash) bool {
	_, ok := hs[*hash]
	return ok
}

func (hs HashSet) Length() int {
	return len(hs)
}

// Subtract returns a new set of the hashes of hs missing from other
func (hs HashSet) Subtract(other HashSet) HashSet {
	difference := New()
	for hash := range hs {
		if _, ok := other[hash]; !ok {
			difference[hash] = struct{}{}
		}
	}
	return difference
}

// ToSortedSlice returns the hashes in ascending byte order
func (hs HashSet) ToSortedSlice() []*externalapi.DomainHash {
	sorted := make([]*externalapi.DomainHash, 0, len(hs))
	for hash := range hs {
		hash := hash
		sorted = append(sorted, &hash)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	return sorted
}
