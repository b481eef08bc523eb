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

import "math"

// maxQual is the ceiling for Phred-scaled quality scores. Higher
// values are clamped before conversion so that error probabilities
// stay well above machine epsilon.
const maxQual = 254

func qualityToErrorProbability(phred float64) float64 {
	if phred > maxQual {
		phred = maxQual
	}
	return math.Pow(10, phred/-10)
}

var (
	qualToErrorProb      [256]float64
	qualToProb           [256]float64
	qualToErrorProbLog10 [256]float64
	qualToProbLog10      [256]float64
)

func init() {
	for qual := range qualToErrorProb {
		phred := float64(qual)
		if phred > maxQual {
			phred = maxQual
		}
		errorProb := math.Pow(10, phred/-10)
		qualToErrorProb[qual] = errorProb
		qualToProb[qual] = 1 - errorProb
		qualToErrorProbLog10[qual] = phred / -10
		// log10(1-errorProb); -Inf for quality 0, where a base carries no information
		qualToProbLog10[qual] = math.Log1p(-errorProb) * math.Log10E
	}
}

/*
	matchToMatch caches store the probability of continuing an aligned
	match, 1 - (insertionError + deletionError), with the sum of the
	two error probabilities capped at 1. They are triangular: the pair
	(insQual, delQual) is symmetric, so entries are indexed by
	(maxQual*(maxQual+1))/2 + minQual over the ordered pair.
*/

var (
	matchToMatchCacheProb  []float64
	matchToMatchCacheLog10 []float64
)

func init() {
	matchToMatchCacheProb = make([]float64, ((maxQual+1)*(maxQual+2))>>1)
	matchToMatchCacheLog10 = make([]float64, ((maxQual+1)*(maxQual+2))>>1)
	for i, offset := 0, 0; i <= maxQual; i, offset = i+1, offset+i+1 {
		for j := 0; j <= i; j++ {
			errorSum := math.Pow(10, float64(i)/-10) + math.Pow(10, float64(j)/-10)
			log10Prob := math.Log1p(-math.Min(1, errorSum)) * math.Log10E
			matchToMatchCacheLog10[offset+j] = log10Prob
			matchToMatchCacheProb[offset+j] = math.Pow(10, log10Prob)
		}
	}
}

func matchToMatchCacheIndex(insQual, delQual byte) int {
	minQ, maxQ := int(insQual), int(delQual)
	if minQ > maxQ {
		minQ, maxQ = maxQ, minQ
	}
	if maxQ > maxQual {
		maxQ = maxQual
		if minQ > maxQual {
			minQ = maxQual
		}
	}
	return (maxQ*(maxQ+1))>>1 + minQ
}

func matchToMatchProb(insQual, delQual byte) float64 {
	return matchToMatchCacheProb[matchToMatchCacheIndex(insQual, delQual)]
}

func matchToMatchProbLog10(insQual, delQual byte) float64 {
	return matchToMatchCacheLog10[matchToMatchCacheIndex(insQual, delQual)]
}
