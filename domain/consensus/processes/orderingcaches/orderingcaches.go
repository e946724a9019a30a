package orderingcaches

import (
	"sort"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/infrastructure/metrics"
)

const (
	blueSetsCacheName       = "blue_sets"
	tipComparisonsCacheName = "tip_comparisons"
	templatesCacheName      = "templates"
)

type tipComparisonEntry struct {
	blockHashA externalapi.DomainHash
	blockHashB externalapi.DomainHash
	aIsLess    bool
}

type templateEntry struct {
	tips     []externalapi.DomainHash
	skeleton *model.TemplateSkeleton
}

type orderingCaches struct {
	blueSets       *lru.Cache
	tipComparisons *lru.Cache
	templates      *lru.Cache
}

// New instantiates ordering caches holding up to size entries each.
// A size of zero returns caches that never hit.
func New(size int) model.OrderingCaches {
	if size <= 0 {
		log.Debugf("Ordering caches are disabled")
		return &orderingCaches{}
	}
	return &orderingCaches{
		blueSets:       newLRU(size),
		tipComparisons: newLRU(size),
		templates:      newLRU(size),
	}
}

func newLRU(size int) *lru.Cache {
	cache, err := lru.New(size)
	if err != nil {
		panic(err)
	}
	return cache
}

func (oc *orderingCaches) enabled() bool {
	return oc.blueSets != nil
}

func (oc *orderingCaches) BlueSet(blockHash *externalapi.DomainHash) (*model.BlockGHOSTDAGData, bool) {
	if !oc.enabled() {
		return nil, false
	}
	value, ok := oc.blueSets.Get(*blockHash)
	metrics.OrderingCacheLookup(blueSetsCacheName, ok)
	if !ok {
		return nil, false
	}
	return value.(*model.BlockGHOSTDAGData), true
}

func (oc *orderingCaches) AddBlueSet(blockHash *externalapi.DomainHash, ghostdagData *model.BlockGHOSTDAGData) {
	if !oc.enabled() {
		return
	}
	oc.blueSets.Add(*blockHash, ghostdagData)
}

// pairKey is symmetric so that (a, b) and (b, a) share an entry
func pairKey(blockHashA, blockHashB *externalapi.DomainHash) uint64 {
	low, high := blockHashA, blockHashB
	if high.Less(low) {
		low, high = high, low
	}
	digest := xxhash.New()
	_, _ = digest.Write(low.ByteSlice())
	_, _ = digest.Write(high.ByteSlice())
	return digest.Sum64()
}

func (oc *orderingCaches) TipComparison(blockHashA, blockHashB *externalapi.DomainHash) (aIsLess bool, ok bool) {
	if !oc.enabled() {
		return false, false
	}
	value, ok := oc.tipComparisons.Get(pairKey(blockHashA, blockHashB))
	if ok {
		entry := value.(*tipComparisonEntry)
		switch {
		case entry.blockHashA == *blockHashA && entry.blockHashB == *blockHashB:
			aIsLess = entry.aIsLess
		case entry.blockHashA == *blockHashB && entry.blockHashB == *blockHashA:
			aIsLess = !entry.aIsLess
		default:
			ok = false
		}
	}
	metrics.OrderingCacheLookup(tipComparisonsCacheName, ok)
	return aIsLess, ok
}

func (oc *orderingCaches) AddTipComparison(blockHashA, blockHashB *externalapi.DomainHash, aIsLess bool) {
	if !oc.enabled() {
		return
	}
	oc.tipComparisons.Add(pairKey(blockHashA, blockHashB), &tipComparisonEntry{
		blockHashA: *blockHashA,
		blockHashB: *blockHashB,
		aIsLess:    aIsLess,
	})
}

func sortedTips(tips []*externalapi.DomainHash) []externalapi.DomainHash {
	sorted := make([]externalapi.DomainHash, len(tips))
	for i, tip := range tips {
		sorted[i] = *tip
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Less(&sorted[j])
	})
	return sorted
}

func tipSetKey(sorted []externalapi.DomainHash) uint64 {
	digest := xxhash.New()
	for i := range sorted {
		_, _ = digest.Write(sorted[i].ByteSlice())
	}
	return digest.Sum64()
}

func (oc *orderingCaches) Template(tips []*externalapi.DomainHash) (*model.TemplateSkeleton, bool) {
	if !oc.enabled() {
		return nil, false
	}
	sorted := sortedTips(tips)
	value, ok := oc.templates.Get(tipSetKey(sorted))
	var skeleton *model.TemplateSkeleton
	if ok {
		entry := value.(*templateEntry)
		if sameTips(entry.tips, sorted) {
			skeleton = entry.skeleton.Clone()
		} else {
			ok = false
		}
	}
	metrics.OrderingCacheLookup(templatesCacheName, ok)
	return skeleton, ok
}

func sameTips(a, b []externalapi.DomainHash) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (oc *orderingCaches) AddTemplate(tips []*externalapi.DomainHash, skeleton *model.TemplateSkeleton) {
	if !oc.enabled() {
		return
	}
	sorted := sortedTips(tips)
	oc.templates.Add(tipSetKey(sorted), &templateEntry{tips: sorted, skeleton: skeleton.Clone()})
}

func (oc *orderingCaches) InvalidateBlocks(blockHashes []*externalapi.DomainHash) {
	if !oc.enabled() || len(blockHashes) == 0 {
		return
	}

	invalidated := make(map[externalapi.DomainHash]struct{}, len(blockHashes))
	for _, blockHash := range blockHashes {
		invalidated[*blockHash] = struct{}{}
		oc.blueSets.Remove(*blockHash)
	}

	for _, key := range oc.tipComparisons.Keys() {
		value, ok := oc.tipComparisons.Peek(key)
		if !ok {
			continue
		}
		entry := value.(*tipComparisonEntry)
		_, aInvalidated := invalidated[entry.blockHashA]
		_, bInvalidated := invalidated[entry.blockHashB]
		if aInvalidated || bInvalidated {
			oc.tipComparisons.Remove(key)
		}
	}

	oc.templates.Purge()
	log.Debugf("Invalidated ordering cache entries of %d blocks", len(blockHashes))
}

func (oc *orderingCaches) InvalidateTemplates() {
	if !oc.enabled() {
		return
	}
	oc.templates.Purge()
}

func (oc *orderingCaches) Purge() {
	if !oc.enabled() {
		return
	}
	oc.blueSets.Purge()
	oc.tipComparisons.Purge()
	oc.templates.Purge()
}
