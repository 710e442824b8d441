package ranking

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"

	"rankstream/api/rankpb"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// HashEngine is a deterministic Engine that derives every score from hashes of
// the request. The item count depends only on query and item id, so it is
// stable across versions of the same request.
type HashEngine struct{}

// NewHashEngine creates a HashEngine.
func NewHashEngine() *HashEngine {
	return &HashEngine{}
}

var versionMultiplier = map[uint32]float64{
	1: 0.7,
	2: 0.9,
	3: 1.1,
}

// Generate implements Engine.
func (e *HashEngine) Generate(ctx context.Context, req Request, version uint32) (*rankpb.ResultSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "generate result set failed")
	}
	multiplier, ok := versionMultiplier[version]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidVersion, "version %d", version)
	}

	seed := hashStrings(req.Query, req.ItemID)
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))
	n := MinItems + rng.IntN(MaxItems-MinItems+1)

	var boost float64
	if req.Understanding != "" {
		boost = float64(hashStrings(req.Understanding)%200) / 1000 // up to 0.2
	}

	items := make([]*rankpb.ScoredItem, n)
	for i := 0; i < n; i++ {
		idx := strconv.Itoa(i)
		base := float64(hashStrings(req.Query, req.ItemID, idx)%1000) / 1000
		jitter := rng.Float64()*0.2 - 0.1
		items[i] = &rankpb.ScoredItem{
			ItemID:   candidateID(req, idx),
			ResultID: fmt.Sprintf("rs_%s_%d_v%d", req.ItemID, i+1, version),
			Score:    clamp((base+boost)*multiplier + jitter),
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	return &rankpb.ResultSet{
		Version: version,
		Items:   items,
	}, nil
}

// candidateID picks the requested item itself for roughly a third of the
// candidates and a related item id for the rest.
func candidateID(req Request, idx string) string {
	h := hashStrings(req.Query, idx)
	if req.ItemID != "" && h%10 < 3 {
		return req.ItemID
	}
	return fmt.Sprintf("B%09d", h%1_000_000_000)
}

func hashStrings(parts ...string) uint64 {
	d := xxhash.New()
	for _, p := range parts {
		_, _ = d.WriteString(p)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
