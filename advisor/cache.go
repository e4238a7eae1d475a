package advisor

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"cattlefeed/ml"
)

const defaultCacheSize = 256

// PredictionCache memoises records per model generation and feature vector.
// Records are copied on the way in and out so callers cannot mutate cached
// values.
type PredictionCache struct {
	entries *lru.Cache[cacheKey, ml.PredictionRecord]
}

// cacheKey ties an entry to the model that produced it, so a record computed
// by a replaced model is never served for its successor.
type cacheKey struct {
	generation uint64
	vector     ml.FeatureVector
}

func NewPredictionCache(size int) (*PredictionCache, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	entries, err := lru.New[cacheKey, ml.PredictionRecord](size)
	if err != nil {
		return nil, err
	}
	return &PredictionCache{entries: entries}, nil
}

func (c *PredictionCache) Get(generation uint64, vector ml.FeatureVector) (ml.PredictionRecord, bool) {
	if c == nil {
		return nil, false
	}
	record, ok := c.entries.Get(cacheKey{generation: generation, vector: vector})
	if !ok {
		return nil, false
	}
	return cloneRecord(record), true
}

func (c *PredictionCache) Add(generation uint64, vector ml.FeatureVector, record ml.PredictionRecord) {
	if c == nil {
		return
	}
	c.entries.Add(cacheKey{generation: generation, vector: vector}, cloneRecord(record))
}

// Purge drops every entry. Called after the model is replaced to free
// entries of the old generation.
func (c *PredictionCache) Purge() {
	if c == nil {
		return
	}
	c.entries.Purge()
}

func (c *PredictionCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

func cloneRecord(record ml.PredictionRecord) ml.PredictionRecord {
	out := make(ml.PredictionRecord, len(record))
	for k, v := range record {
		out[k] = v
	}
	return out
}
