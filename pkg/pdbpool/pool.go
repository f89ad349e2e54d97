// Package pdbpool loads and samples the pool of structure ids available
// for folding rounds.
package pdbpool

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"
)

// Pool is the canonical representation of the structure-id pool. The
// on-disk file is either a mapping of family -> ids or a flat list of ids;
// the shape is resolved exactly once at load time and consumers never see
// the difference again.
type Pool struct {
	grouped  map[string][]string
	families []string // sorted keys of grouped, empty families pruned
	flat     []string
}

// LoadFile reads the pool file at path. A missing file is a startup error:
// the pool is produced by an external gathering step and the validator
// cannot invent structure ids.
func LoadFile(path string) (*Pool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Errorf(
			"required structure-id pool %q was not found: run the gather-pdbs generation step first", path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading structure-id pool %q", path)
	}
	pool, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing structure-id pool %q", path)
	}
	log.Info().Str("Path", path).Int("Structures", pool.Len()).Msg("Loaded structure-id pool")
	return pool, nil
}

// Parse resolves the duck-typed on-disk shape into the canonical Pool.
func Parse(data []byte) (*Pool, error) {
	var grouped map[string][]string
	if err := json.Unmarshal(data, &grouped); err == nil {
		pool := &Pool{grouped: map[string][]string{}}
		for family, ids := range grouped {
			if len(ids) == 0 {
				continue
			}
			pool.grouped[family] = ids
			pool.families = append(pool.families, family)
		}
		sort.Strings(pool.families)
		if len(pool.families) == 0 {
			return nil, errors.New("pool contains no structure ids")
		}
		return pool, nil
	}

	var flat []string
	if err := json.Unmarshal(data, &flat); err == nil {
		if len(flat) == 0 {
			return nil, errors.New("pool contains no structure ids")
		}
		return &Pool{flat: flat}, nil
	}

	return nil, errors.New("pool is neither a family mapping nor a flat list of structure ids")
}

// Len is the total number of structure ids in the pool.
func (p *Pool) Len() int {
	if p.flat != nil {
		return len(p.flat)
	}
	total := 0
	for _, ids := range p.grouped {
		total += len(ids)
	}
	return total
}

// SelectRandom picks a structure id. For a grouped pool a family is drawn
// first, then an id within it, so small families are not crowded out by
// large ones.
func (p *Pool) SelectRandom(rng *frand.RNG) string {
	if p.flat != nil {
		return p.flat[rng.Intn(len(p.flat))]
	}
	family := p.families[rng.Intn(len(p.families))]
	ids := p.grouped[family]
	return ids[rng.Intn(len(ids))]
}
