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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type batchInput struct {
	haplotypes                              [][]byte
	readBases                               []byte
	baseQuals, insQuals, delQuals, gapQuals []byte
}

func makeBatchInputs(random *rand.Rand, nReads, nHaplotypes int) []batchInput {
	inputs := make([]batchInput, nReads)
	for i := range inputs {
		readLength := 10 + random.Intn(90)
		haplotypes := make([][]byte, nHaplotypes)
		// haplotypes sharing a common prefix, so that the in-batch
		// prefix caching is actually exercised
		prefix := randomBases(random, 30+random.Intn(100))
		for j := range haplotypes {
			haplotypes[j] = append(append([]byte{}, prefix...), randomBases(random, 1+random.Intn(20))...)
		}
		inputs[i] = batchInput{
			haplotypes: haplotypes,
			readBases:  randomBases(random, readLength),
			baseQuals:  dupBytes(byte(10+random.Intn(30)), readLength),
			insQuals:   dupBytes(45, readLength),
			delQuals:   dupBytes(40, readLength),
			gapQuals:   dupBytes(10, readLength),
		}
	}
	return inputs
}

func TestBatchEmptyQueue(t *testing.T) {
	batch := NewBatchPairHMM(func() PairHMM { return NewLoglessPairHMM() })
	if results := batch.BatchResults(); len(results) != 0 {
		t.Errorf("draining an empty queue returned %v results", len(results))
	}
}

func TestBatchMatchesSingleShot(t *testing.T) {
	newEvaluators := map[string]func() PairHMM{
		"exact":       func() PairHMM { return NewLog10PairHMM(true) },
		"approximate": func() PairHMM { return NewLog10PairHMM(false) },
		"logless":     func() PairHMM { return NewLoglessPairHMM() },
	}
	for name, newEvaluator := range newEvaluators {
		random := rand.New(rand.NewSource(47382911))
		inputs := makeBatchInputs(random, 10, 8)
		batch := NewBatchPairHMM(newEvaluator)
		var expected []float64
		single := newEvaluator()
		for _, input := range inputs {
			require.NoError(t, batch.BatchAdd(input.haplotypes, input.readBases, input.baseQuals, input.insQuals, input.delQuals, input.gapQuals))
			for _, haplotype := range input.haplotypes {
				single.Initialize(len(input.readBases), len(haplotype))
				value, err := single.ComputeLog10Likelihood(haplotype, input.readBases, input.baseQuals, input.insQuals, input.delQuals, input.gapQuals, true, nil)
				require.NoError(t, err)
				expected = append(expected, value)
			}
		}
		results := batch.BatchResults()
		require.Len(t, results, len(expected), "evaluator %v", name)
		for i := range expected {
			assert.InDelta(t, expected[i], results[i], 1e-9, "evaluator %v, unit %v", name, i)
		}
		// the queue is emptied by draining it
		if results := batch.BatchResults(); len(results) != 0 {
			t.Errorf("draining a drained queue returned %v results", len(results))
		}
	}
}

func TestBatchReuseAfterDrain(t *testing.T) {
	random := rand.New(rand.NewSource(47382911))
	batch := NewBatchPairHMM(func() PairHMM { return NewLoglessPairHMM() })
	inputs := makeBatchInputs(random, 4, 3)
	for _, input := range inputs {
		require.NoError(t, batch.BatchAdd(input.haplotypes, input.readBases, input.baseQuals, input.insQuals, input.delQuals, input.gapQuals))
	}
	first := batch.BatchResults()
	require.Len(t, first, 12)
	for _, input := range inputs {
		require.NoError(t, batch.BatchAdd(input.haplotypes, input.readBases, input.baseQuals, input.insQuals, input.delQuals, input.gapQuals))
	}
	second := batch.BatchResults()
	require.Len(t, second, 12)
	for i := range first {
		assert.InDelta(t, first[i], second[i], 1e-9, "unit %v", i)
	}
}

func TestBatchAddValidation(t *testing.T) {
	batch := NewBatchPairHMM(func() PairHMM { return NewLoglessPairHMM() })
	readBases := []byte("ACGT")
	quals := dupBytes(30, len(readBases))
	shortQuals := dupBytes(30, len(readBases)-1)
	haplotypes := [][]byte{[]byte("ACGTACGT")}
	assert.Error(t, batch.BatchAdd(haplotypes, readBases, shortQuals, quals, quals, quals))
	assert.Error(t, batch.BatchAdd(haplotypes, nil, nil, nil, nil, nil))
	assert.Error(t, batch.BatchAdd([][]byte{{}}, readBases, quals, quals, quals, quals))
	if results := batch.BatchResults(); len(results) != 0 {
		t.Errorf("rejected work units must not be queued, got %v results", len(results))
	}
}

func BenchmarkBatchPairHMM(b *testing.B) {
	random := rand.New(rand.NewSource(47382911))
	inputs := makeBatchInputs(random, 20, 10)
	batch := NewBatchPairHMM(func() PairHMM { return NewLoglessPairHMM() })
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, input := range inputs {
			if err := batch.BatchAdd(input.haplotypes, input.readBases, input.baseQuals, input.insQuals, input.delQuals, input.gapQuals); err != nil {
				b.Fatal(err)
			}
		}
		batch.BatchResults()
	}
}
