package server

import (
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/f-sync/unfollow/internal/relations"
)

const defaultAnalysisCacheSize = 32

// storedAnalysis is one analyzed archive kept for the report pages.
type storedAnalysis struct {
	identifier string
	fileName   string
	result     relations.Result
	createdAt  time.Time
}

// analysisCache retains the most recently used analyses. Evicted analyses must be
// uploaded again.
type analysisCache struct {
	entries *lru.Cache[string, storedAnalysis]
}

// newAnalysisCache constructs a cache holding at most size analyses.
func newAnalysisCache(size int) (*analysisCache, error) {
	if size <= 0 {
		size = defaultAnalysisCacheSize
	}
	entries, err := lru.New[string, storedAnalysis](size)
	if err != nil {
		return nil, err
	}
	return &analysisCache{entries: entries}, nil
}

// Store registers result under a fresh identifier and returns the stored analysis.
func (cache *analysisCache) Store(fileName string, result relations.Result) storedAnalysis {
	analysis := storedAnalysis{
		identifier: uuid.NewString(),
		fileName:   fileName,
		result:     result,
		createdAt:  time.Now().UTC(),
	}
	cache.entries.Add(analysis.identifier, analysis)
	return analysis
}

// Lookup returns the analysis stored under identifier.
func (cache *analysisCache) Lookup(identifier string) (storedAnalysis, bool) {
	return cache.entries.Get(identifier)
}
