// pairHMM: a high-performance pairwise sequence likelihood engine for variant calling.
// Copyright (c) 2022 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/pairhmm/blob/master/LICENSE.txt>.

package pairhmm

import (
	"log"
	"sync"

	"github.com/exascience/pargo/parallel"
	"github.com/pkg/errors"
)

type batchUnit struct {
	haplotypeBases, nextHaplotypeBases      []byte
	readBases                               []byte
	baseQuals, insQuals, delQuals, gapQuals []byte
	newRead                                 bool
}

// A BatchPairHMM queues likelihood computations and evaluates them
// together, so that the fixed per-call overhead can be amortized and
// the work spread over parallel workers. Queueing performs no
// computation; per-pair semantics are identical to the single-shot
// evaluators.
type BatchPairHMM struct {
	pool  sync.Pool
	units []batchUnit
}

// NewBatchPairHMM creates a batch facade. newEvaluator is invoked to
// populate a pool of evaluators, one live instance per parallel
// worker.
func NewBatchPairHMM(newEvaluator func() PairHMM) *BatchPairHMM {
	batch := new(BatchPairHMM)
	batch.pool.New = func() interface{} { return newEvaluator() }
	return batch
}

// BatchAdd appends one unit of work per haplotype, all sharing the
// given read and quality arrays. The inputs remain owned by the
// caller and must not be mutated until the next BatchResults call.
func (batch *BatchPairHMM) BatchAdd(haplotypes [][]byte, readBases, baseQuals, insQuals, delQuals, gapQuals []byte) error {
	if len(readBases) == 0 {
		return errors.New("empty read")
	}
	for _, quals := range [4][]byte{baseQuals, insQuals, delQuals, gapQuals} {
		if len(quals) != len(readBases) {
			return errors.Errorf("quality array length %v does not match read length %v", len(quals), len(readBases))
		}
	}
	for _, haplotypeBases := range haplotypes {
		if len(haplotypeBases) == 0 {
			return errors.New("empty haplotype")
		}
	}
	for index, haplotypeBases := range haplotypes {
		var nextHaplotypeBases []byte
		if index+1 < len(haplotypes) {
			nextHaplotypeBases = haplotypes[index+1]
		}
		batch.units = append(batch.units, batchUnit{
			haplotypeBases:     haplotypeBases,
			nextHaplotypeBases: nextHaplotypeBases,
			readBases:          readBases,
			baseQuals:          baseQuals,
			insQuals:           insQuals,
			delQuals:           delQuals,
			gapQuals:           gapQuals,
			newRead:            index == 0,
		})
	}
	return nil
}

// BatchResults evaluates all queued units and returns their log10
// likelihoods in submission order, emptying the queue. An empty queue
// yields an empty result.
func (batch *BatchPairHMM) BatchResults() []float64 {
	if len(batch.units) == 0 {
		return nil
	}
	var maxReadLength, maxHaplotypeLength int
	parallel.Do(
		func() {
			maxReadLength = parallel.RangeReduceInt(0, len(batch.units), 0, func(low, high int) int {
				var max int
				for i := low; i < high; i++ {
					if l := len(batch.units[i].readBases); l > max {
						max = l
					}
				}
				return max
			}, maxInt)
		},
		func() {
			maxHaplotypeLength = parallel.RangeReduceInt(0, len(batch.units), 0, func(low, high int) int {
				var max int
				for i := low; i < high; i++ {
					if l := len(batch.units[i].haplotypeBases); l > max {
						max = l
					}
				}
				return max
			}, maxInt)
		},
	)
	results := make([]float64, len(batch.units))
	parallel.Range(0, len(batch.units), 0, func(low, high int) {
		hmm := batch.pool.Get().(PairHMM)
		defer batch.pool.Put(hmm)
		hmm.Initialize(maxReadLength, maxHaplotypeLength)
		recache := true
		for i := low; i < high; i++ {
			unit := batch.units[i]
			if unit.newRead {
				recache = true
			}
			value, err := hmm.ComputeLog10Likelihood(unit.haplotypeBases, unit.readBases, unit.baseQuals, unit.insQuals, unit.delQuals, unit.gapQuals, recache, unit.nextHaplotypeBases)
			if err != nil {
				// the batch is initialized to the maximum dimensions
				// over the queue, so no unit can exceed them
				log.Panic(err)
			}
			results[i] = value
			recache = false
		}
	})
	batch.units = batch.units[:0]
	return results
}
