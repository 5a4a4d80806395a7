package relation

import (
	"context"
	"fmt"
	"hash/fnv"

	"golang.org/x/sync/errgroup"
)

// DefaultPartitions is the partition count used when none is configured.
const DefaultPartitions = 10

// Partition splits r into n relations by a hash of key, so rows sharing a key
// land in the same partition. Null keys go to partition 0. n < 1 is treated
// as 1. Row order within a partition follows r.
func (r *Relation) Partition(key string, n int) ([]*Relation, error) {
	i, err := r.col(key)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		n = 1
	}
	parts := make([]*Relation, n)
	for p := range parts {
		parts[p] = derive(r.name, r.columns, len(r.rows)/n+1)
	}
	for _, row := range r.rows {
		p := partitionOf(row[i], n)
		parts[p].rows = append(parts[p].rows, row)
	}
	return parts, nil
}

func partitionOf(v Value, n int) int {
	if n == 1 || v.IsNull() {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(v.key()))
	return int(h.Sum32() % uint32(n))
}

// MapPartitions runs fn over every partition with at most workers goroutines
// and returns the union of the results in partition order. The first error
// cancels the remaining work. workers < 1 means one goroutine per partition.
func MapPartitions(ctx context.Context, parts []*Relation, workers int, fn func(ctx context.Context, part *Relation) (*Relation, error)) (*Relation, error) {
	return runPartitions(ctx, len(parts), workers, func(ctx context.Context, p int) (*Relation, error) {
		return fn(ctx, parts[p])
	})
}

// ZipPartitions is MapPartitions over two co-partitioned inputs: fn receives
// partition p of left and partition p of right.
func ZipPartitions(ctx context.Context, left, right []*Relation, workers int, fn func(ctx context.Context, l, r *Relation) (*Relation, error)) (*Relation, error) {
	if len(left) != len(right) {
		return nil, fmt.Errorf("zip partitions: %d left partitions, %d right", len(left), len(right))
	}
	return runPartitions(ctx, len(left), workers, func(ctx context.Context, p int) (*Relation, error) {
		return fn(ctx, left[p], right[p])
	})
}

func runPartitions(ctx context.Context, n, workers int, fn func(ctx context.Context, p int) (*Relation, error)) (*Relation, error) {
	if n == 0 {
		return nil, fmt.Errorf("partitions: nothing to run")
	}
	results := make([]*Relation, n)
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for p := 0; p < n; p++ {
		p := p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := fn(ctx, p)
			if err != nil {
				return err
			}
			results[p] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Union(results...)
}
