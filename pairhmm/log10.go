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

	"gonum.org/v1/gonum/floats"
)

func log10(x float64) float64 {
	return math.Log10(x)
}

var log10Of3 = log10(3)

func log10SumLog10(a, b float64) float64 {
	if a > b {
		a, b = b, a
	}
	if math.IsInf(a, -1) {
		return b
	}
	return b + log10(1+math.Pow(10, a-b))
}

// log10SumLog10Slice sums a slice of log10 probabilities. The slice
// is rescaled to the natural logarithm in place.
func log10SumLog10Slice(values []float64) float64 {
	if len(values) == 0 {
		return math.Inf(-1)
	}
	floats.Scale(math.Ln10, values)
	return floats.LogSumExp(values) / math.Ln10
}

/*
	The Jacobian logarithm table approximates log10(10^a + 10^b) as
	b + f(b-a) for the larger value b, with f tabulated at a fixed
	step. Differences beyond the tolerance contribute less than the
	table resolution and collapse to the larger value.
*/

const (
	maxJacobianTolerance    = 8.0
	jacobianLogTableStep    = 0.0001
	jacobianLogTableInvStep = 1 / jacobianLogTableStep
	jacobianLogTableSize    = int(maxJacobianTolerance/jacobianLogTableStep) + 1
)

var jacobianLogTable []float64

func init() {
	jacobianLogTable = make([]float64, jacobianLogTableSize)
	for k := range jacobianLogTable {
		jacobianLogTable[k] = log10(1 + math.Pow(10, -float64(k)*jacobianLogTableStep))
	}
}

func approximateLog10SumLog10(a, b float64) float64 {
	if a > b {
		a, b = b, a
	}
	if math.IsInf(a, -1) {
		return b
	}
	if diff := b - a; diff < maxJacobianTolerance {
		return b + jacobianLogTable[int(math.Round(diff*jacobianLogTableInvStep))]
	}
	return b
}
