// Package ivf provides an approximate vector index backed by an
// inverted file over coarse centroids. Vectors are L2-normalized on
// insert so inner product equals cosine similarity, and searches probe
// only the lists nearest to the query.
//
// Until enough records accumulate to train centroids the index answers
// by exact brute-force scan, and a probed search that matches nothing
// re-runs as a brute-force scan. Callers never get an empty result set
// merely because the approximation structure was cold.
package ivf

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/trustlens-labs/trustlens-cli/internal/core/domain"
	"github.com/trustlens-labs/trustlens-cli/internal/core/ports/driven"
)

const (
	// DefaultLists is the number of coarse centroids.
	DefaultLists = 16
	// DefaultProbes is how many lists a search visits.
	DefaultProbes = 4
	// DefaultTrainThreshold is the record count below which the index
	// stays in exact brute-force mode.
	DefaultTrainThreshold = 256

	kMeansIterations = 8
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is an inverted-file vector index with an exact fallback path.
type Index struct {
	mu      sync.RWMutex
	records map[string]domain.VectorRecord
	normed  map[string][]float32
	order   []string

	lists   int
	probes  int
	trainAt int

	centroids  [][]float32
	assignment [][]string
	trainedOn  int
}

// Option configures an Index.
type Option func(*Index)

// WithLists sets the number of coarse centroids.
func WithLists(n int) Option {
	return func(idx *Index) {
		if n > 0 {
			idx.lists = n
		}
	}
}

// WithProbes sets how many lists each search visits.
func WithProbes(n int) Option {
	return func(idx *Index) {
		if n > 0 {
			idx.probes = n
		}
	}
}

// WithTrainThreshold sets the record count that triggers centroid training.
func WithTrainThreshold(n int) Option {
	return func(idx *Index) {
		if n > 0 {
			idx.trainAt = n
		}
	}
}

// New creates an empty index.
func New(opts ...Option) *Index {
	idx := &Index{
		records: make(map[string]domain.VectorRecord),
		normed:  make(map[string][]float32),
		lists:   DefaultLists,
		probes:  DefaultProbes,
		trainAt: DefaultTrainThreshold,
	}
	for _, opt := range opts {
		opt(idx)
	}
	if idx.probes > idx.lists {
		idx.probes = idx.lists
	}
	return idx
}

// Add inserts the record, replacing any record with the same chunk ID.
func (idx *Index) Add(_ context.Context, record domain.VectorRecord) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.add(record)
}

// AddBatch inserts multiple records. Records without embeddings are
// skipped; the embedding pipeline already counted them as failures.
func (idx *Index) AddBatch(_ context.Context, records []domain.VectorRecord) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, record := range records {
		if len(record.Embedding) == 0 {
			continue
		}
		if err := idx.add(record); err != nil {
			return err
		}
	}
	return nil
}

func (idx *Index) add(record domain.VectorRecord) error {
	if record.ChunkID == "" {
		return fmt.Errorf("%w: record needs a chunk ID", domain.ErrInvalidInput)
	}
	if len(record.Embedding) == 0 {
		return fmt.Errorf("%w: record %s has no embedding", domain.ErrInvalidInput, record.ChunkID)
	}
	if dim := idx.dimension(); dim > 0 && len(record.Embedding) != dim {
		return fmt.Errorf("%w: record %s has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, record.ChunkID, len(record.Embedding), dim)
	}

	_, exists := idx.records[record.ChunkID]
	if !exists {
		idx.order = append(idx.order, record.ChunkID)
	}
	idx.records[record.ChunkID] = record
	idx.normed[record.ChunkID] = normalize(record.Embedding)

	if idx.trained() {
		if exists {
			idx.unassign(record.ChunkID)
		}
		idx.assignToNearest(record.ChunkID)
	}
	return nil
}

// Search returns the topK records most similar to the query vector.
// Filters are applied before truncation; equal scores keep insertion order.
func (idx *Index) Search(_ context.Context, query []float32, topK int, filter domain.SearchFilter) ([]domain.VectorHit, error) {
	idx.maybeTrain()

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if topK <= 0 || len(idx.records) == 0 {
		return nil, nil
	}
	if dim := idx.dimension(); dim > 0 && len(query) != dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), dim)
	}

	normedQuery := normalize(query)

	if idx.trained() {
		hits := idx.scan(normedQuery, filter, idx.probeCandidates(normedQuery))
		if len(hits) > 0 {
			return truncate(hits, topK), nil
		}
		// The probed lists held nothing that survived the filter.
		// Fall through to the exact scan rather than returning empty.
	}

	return truncate(idx.scan(normedQuery, filter, nil), topK), nil
}

// scan scores records in insertion order. A nil candidates set means
// every record is a candidate.
func (idx *Index) scan(normedQuery []float32, filter domain.SearchFilter, candidates map[string]struct{}) []domain.VectorHit {
	var hits []domain.VectorHit
	for _, chunkID := range idx.order {
		if candidates != nil {
			if _, ok := candidates[chunkID]; !ok {
				continue
			}
		}
		record := idx.records[chunkID]
		if !filter.Matches(record) {
			continue
		}

		hits = append(hits, domain.VectorHit{
			ChunkID:    record.ChunkID,
			DocID:      record.DocID,
			Text:       record.Text,
			Page:       record.Page,
			ClauseHint: record.ClauseHint,
			Score:      dot(normedQuery, idx.normed[chunkID]),
			Metadata:   record.Metadata,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	return hits
}

// probeCandidates collects the chunk IDs assigned to the probes lists
// nearest the query.
func (idx *Index) probeCandidates(normedQuery []float32) map[string]struct{} {
	type ranked struct {
		list  int
		score float64
	}
	scores := make([]ranked, len(idx.centroids))
	for i, centroid := range idx.centroids {
		scores[i] = ranked{list: i, score: dot(normedQuery, centroid)}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	probes := idx.probes
	if probes > len(scores) {
		probes = len(scores)
	}

	candidates := make(map[string]struct{})
	for _, r := range scores[:probes] {
		for _, chunkID := range idx.assignment[r.list] {
			// Assignment lists can trail record deletions.
			if _, ok := idx.records[chunkID]; ok {
				candidates[chunkID] = struct{}{}
			}
		}
	}
	return candidates
}

// DeleteByDoc removes all records belonging to the document.
func (idx *Index) DeleteByDoc(_ context.Context, docID string) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	kept := idx.order[:0]
	removed := 0
	for _, chunkID := range idx.order {
		if idx.records[chunkID].DocID == docID {
			delete(idx.records, chunkID)
			delete(idx.normed, chunkID)
			if idx.trained() {
				idx.unassign(chunkID)
			}
			removed++
			continue
		}
		kept = append(kept, chunkID)
	}
	idx.order = kept

	return removed, nil
}

// Stats reports index size and composition.
func (idx *Index) Stats(_ context.Context) (domain.IndexStats, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	stats := domain.IndexStats{
		TotalChunks:    len(idx.records),
		DocumentCounts: make(map[string]int),
		ClauseCounts:   make(map[string]int),
		Dimension:      idx.dimension(),
	}

	for _, chunkID := range idx.order {
		record := idx.records[chunkID]
		stats.DocumentCounts[record.DocID]++
		stats.ClauseCounts[record.ClauseHint]++
	}
	stats.TotalDocuments = len(stats.DocumentCounts)

	return stats, nil
}

// Close releases resources.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.records = make(map[string]domain.VectorRecord)
	idx.normed = make(map[string][]float32)
	idx.order = nil
	idx.centroids = nil
	idx.assignment = nil
	idx.trainedOn = 0
	return nil
}

func (idx *Index) dimension() int {
	if len(idx.order) == 0 {
		return 0
	}
	return len(idx.records[idx.order[0]].Embedding)
}

func (idx *Index) trained() bool {
	return len(idx.centroids) > 0
}

// maybeTrain builds centroids once the index holds enough records, and
// rebuilds them after the index doubles since the last training run.
func (idx *Index) maybeTrain() {
	idx.mu.RLock()
	needed := idx.needsTraining()
	idx.mu.RUnlock()
	if !needed {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.needsTraining() {
		idx.train()
	}
}

func (idx *Index) needsTraining() bool {
	if len(idx.records) < idx.trainAt {
		return false
	}
	return !idx.trained() || len(idx.records) >= 2*idx.trainedOn
}

// train runs a deterministic k-means pass: centroids seed from the
// first k records in insertion order, so repeated runs over the same
// inserts produce identical partitions.
func (idx *Index) train() {
	k := idx.lists
	if k > len(idx.order) {
		k = len(idx.order)
	}
	if k == 0 {
		return
	}

	centroids := make([][]float32, k)
	for i := 0; i < k; i++ {
		centroids[i] = cloneVector(idx.normed[idx.order[i]])
	}

	var assignment [][]string
	for iter := 0; iter < kMeansIterations; iter++ {
		assignment = make([][]string, k)
		for _, chunkID := range idx.order {
			best := nearestCentroid(idx.normed[chunkID], centroids)
			assignment[best] = append(assignment[best], chunkID)
		}

		for i := range centroids {
			if len(assignment[i]) == 0 {
				continue
			}
			mean := make([]float64, len(centroids[i]))
			for _, chunkID := range assignment[i] {
				for d, v := range idx.normed[chunkID] {
					mean[d] += float64(v)
				}
			}
			next := make([]float32, len(mean))
			for d := range mean {
				next[d] = float32(mean[d] / float64(len(assignment[i])))
			}
			centroids[i] = normalize(next)
		}
	}

	idx.centroids = centroids
	idx.assignment = assignment
	idx.trainedOn = len(idx.records)
}

func (idx *Index) assignToNearest(chunkID string) {
	best := nearestCentroid(idx.normed[chunkID], idx.centroids)
	idx.assignment[best] = append(idx.assignment[best], chunkID)
}

func (idx *Index) unassign(chunkID string) {
	for i, list := range idx.assignment {
		for j, id := range list {
			if id == chunkID {
				idx.assignment[i] = append(list[:j], list[j+1:]...)
				return
			}
		}
	}
}

func nearestCentroid(v []float32, centroids [][]float32) int {
	best, bestScore := 0, math.Inf(-1)
	for i, centroid := range centroids {
		if score := dot(v, centroid); score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

func truncate(hits []domain.VectorHit, topK int) []domain.VectorHit {
	if len(hits) > topK {
		return hits[:topK]
	}
	return hits
}

// normalize returns v scaled to unit length. The epsilon keeps zero
// vectors finite.
func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	scale := math.Sqrt(norm) + 1e-8

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / scale)
	}
	return out
}

func dot(a, b []float32) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
