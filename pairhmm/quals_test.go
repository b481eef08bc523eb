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
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityConversionTables(t *testing.T) {
	if qualToErrorProb[0] != 1 {
		t.Error("quality 0 must convert to error probability 1")
	}
	if qualToProb[0] != 0 {
		t.Error("quality 0 must convert to probability 0")
	}
	if !math.IsInf(qualToProbLog10[0], -1) {
		t.Error("quality 0 must convert to log10 probability -Inf")
	}
	assert.InDelta(t, 0.01, qualToErrorProb[20], 1e-15)
	assert.InDelta(t, -2, qualToErrorProbLog10[20], 1e-15)
	assert.InDelta(t, 0.99, qualToProb[20], 1e-15)
	assert.InDelta(t, log10(0.99), qualToProbLog10[20], 1e-15)
	for qual := 1; qual < 256; qual++ {
		assert.InDelta(t, qualToErrorProb[qual]+qualToProb[qual], 1, 1e-15)
		assert.True(t, qualToErrorProbLog10[qual] < 0)
	}
	// qualities above the ceiling are clamped before conversion
	assert.Equal(t, qualToErrorProb[maxQual], qualToErrorProb[255])
	assert.Equal(t, qualityToErrorProbability(maxQual), qualityToErrorProbability(1000))
}

func TestMatchToMatchProb(t *testing.T) {
	// two certain errors cap the continuation probability at 0
	assert.Equal(t, 0.0, matchToMatchProb(0, 0))
	assert.True(t, math.IsInf(matchToMatchProbLog10(0, 0), -1))
	for _, pair := range [][2]byte{{10, 10}, {30, 40}, {45, 40}, {100, 100}, {254, 254}, {255, 10}} {
		insQual, delQual := pair[0], pair[1]
		clamp := func(q byte) float64 {
			if q > maxQual {
				return maxQual
			}
			return float64(q)
		}
		expected := 1 - math.Min(1, math.Pow(10, clamp(insQual)/-10)+math.Pow(10, clamp(delQual)/-10))
		assert.InDelta(t, expected, matchToMatchProb(insQual, delQual), 1e-12, "quals %v/%v", insQual, delQual)
		assert.InDelta(t, log10(expected), matchToMatchProbLog10(insQual, delQual), 1e-9, "quals %v/%v", insQual, delQual)
	}
	// symmetric in the two gap-open penalties
	for qual1 := 0; qual1 < 256; qual1 += 7 {
		for qual2 := 0; qual2 < 256; qual2 += 11 {
			if matchToMatchProb(byte(qual1), byte(qual2)) != matchToMatchProb(byte(qual2), byte(qual1)) {
				t.Errorf("matchToMatchProb not symmetric for %v/%v", qual1, qual2)
			}
		}
	}
}

func TestLog10SumLog10(t *testing.T) {
	random := rand.New(rand.NewSource(47382911))
	for i := 0; i < 100000; i++ {
		a := -30 * random.Float64()
		b := -30 * random.Float64()
		expected := log10(math.Pow(10, a) + math.Pow(10, b))
		assert.InDelta(t, expected, log10SumLog10(a, b), 1e-12)
		// the Jacobian table quantizes the difference at 1e-4
		assert.InDelta(t, expected, approximateLog10SumLog10(a, b), 1e-4)
	}
	negInf := math.Inf(-1)
	assert.Equal(t, -3.0, log10SumLog10(negInf, -3))
	assert.Equal(t, -3.0, log10SumLog10(-3, negInf))
	assert.Equal(t, -3.0, approximateLog10SumLog10(negInf, -3))
	assert.True(t, math.IsInf(log10SumLog10(negInf, negInf), -1))
	assert.True(t, math.IsInf(approximateLog10SumLog10(negInf, negInf), -1))
}

func TestLog10SumLog10Slice(t *testing.T) {
	if !math.IsInf(log10SumLog10Slice(nil), -1) {
		t.Error("empty log10SumLog10Slice failed")
	}
	random := rand.New(rand.NewSource(47382911))
	for i := 0; i < 1000; i++ {
		values := make([]float64, 1+random.Intn(50))
		expected := math.Inf(-1)
		for j := range values {
			values[j] = -30 * random.Float64()
			expected = log10SumLog10(expected, values[j])
		}
		assert.InDelta(t, expected, log10SumLog10Slice(values), 1e-12)
	}
	negInfs := []float64{math.Inf(-1), math.Inf(-1)}
	if !math.IsInf(log10SumLog10Slice(negInfs), -1) {
		t.Error("all -Inf log10SumLog10Slice failed")
	}
}
