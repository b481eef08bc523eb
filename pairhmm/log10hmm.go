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
)

// A Log10PairHMM evaluates the pair HMM in log10 space. The exact
// variant computes every log-sum exactly and serves as the
// correctness reference; the approximate variant replaces the per-cell
// log-sums with the Jacobian table approximation and agrees with the
// exact variant within 1e-3.
type Log10PairHMM struct {
	hmmState
	exact    bool
	finalRow []float64
}

// NewLog10PairHMM creates a log-space evaluator. When exact is true,
// log-sums are computed exactly; otherwise the Jacobian table
// approximation is used.
func NewLog10PairHMM(exact bool) *Log10PairHMM {
	return &Log10PairHMM{exact: exact}
}

// Initialize implements the PairHMM interface.
func (hmm *Log10PairHMM) Initialize(maxReadLength, maxHaplotypeLength int) {
	hmm.initialize(maxReadLength, maxHaplotypeLength, math.Inf(-1))
	if size := 2 * hmm.paddedMaxHaplotypeLength; size > cap(hmm.finalRow) {
		hmm.finalRow = make([]float64, 0, size)
	}
}

func (hmm *Log10PairHMM) sum2(a, b float64) float64 {
	if hmm.exact {
		return log10SumLog10(a, b)
	}
	return approximateLog10SumLog10(a, b)
}

func (hmm *Log10PairHMM) sum3(a, b, c float64) float64 {
	return hmm.sum2(hmm.sum2(a, b), c)
}

// ComputeLog10Likelihood implements the PairHMM interface.
func (hmm *Log10PairHMM) ComputeLog10Likelihood(haplotypeBases, readBases, baseQuals, insQuals, delQuals, gapQuals []byte, recacheReadValues bool, nextHaplotypeBases []byte) (float64, error) {
	if err := hmm.prepare(haplotypeBases, readBases, baseQuals, insQuals, delQuals, gapQuals); err != nil {
		return 0, err
	}
	hapStartIndex := hmm.startIndex(recacheReadValues)
	if hmm.previousHaplotypeLength != len(haplotypeBases) {
		// free deletions before the first read base: the alignment may
		// start at any haplotype offset with uniform prior
		initialValue := log10(1 / float64(len(haplotypeBases)))
		pDeletion0 := hmm.deletion.rowView(0)
		for j := 0; j < hmm.paddedHaplotypeLength; j++ {
			pDeletion0[j] = initialValue
		}
	}
	if !hmm.constantsAreInitialized || recacheReadValues {
		for i := range readBases {
			trans := hmm.transition.rowView(i + 1)
			trans[matchToMatch] = matchToMatchProbLog10(insQuals[i], delQuals[i])
			trans[indelToMatch] = qualToProbLog10[gapQuals[i]]
			trans[matchToInsertion] = qualToErrorProbLog10[insQuals[i]]
			trans[insertionToInsertion] = qualToErrorProbLog10[gapQuals[i]]
			trans[matchToDeletion] = qualToErrorProbLog10[delQuals[i]]
			trans[deletionToDeletion] = qualToErrorProbLog10[gapQuals[i]]
		}
		hmm.constantsAreInitialized = true
	}
	for i := range readBases {
		x := readBases[i]
		qual := baseQuals[i]
		matchPrior := qualToProbLog10[qual]
		nonMatchPrior := qualToErrorProbLog10[qual]
		if !hmm.noTristateCorrection {
			nonMatchPrior -= log10Of3
		}
		trans := hmm.transition.rowView(i + 1)

		// note: it's important to get the row views for performance
		pMatchI := hmm.match.rowView(i)
		pMatchI1 := hmm.match.rowView(i + 1)
		pInsertionI := hmm.insertion.rowView(i)
		pInsertionI1 := hmm.insertion.rowView(i + 1)
		pDeletionI := hmm.deletion.rowView(i)
		pDeletionI1 := hmm.deletion.rowView(i + 1)

		for j := hapStartIndex; j < len(haplotypeBases); j++ {
			y := haplotypeBases[j]
			var prior float64
			if x == y || x == 'N' || y == 'N' {
				prior = matchPrior
			} else {
				prior = nonMatchPrior
			}
			pMatchI1[j+1] = prior + hmm.sum3(pMatchI[j]+trans[matchToMatch],
				pInsertionI[j]+trans[indelToMatch],
				pDeletionI[j]+trans[indelToMatch])
			pInsertionI1[j+1] = hmm.sum2(pMatchI[j+1]+trans[matchToInsertion], pInsertionI[j+1]+trans[insertionToInsertion])
			pDeletionI1[j+1] = hmm.sum2(pMatchI1[j]+trans[matchToDeletion], pDeletionI1[j]+trans[deletionToDeletion])
		}
	}
	// the alignment may end at any haplotype offset
	pMatchEnd := hmm.match.rowView(len(readBases))
	pInsertionEnd := hmm.insertion.rowView(len(readBases))
	finalRow := hmm.finalRow[:0]
	for j := 1; j < hmm.paddedHaplotypeLength; j++ {
		finalRow = append(finalRow, pMatchEnd[j], pInsertionEnd[j])
	}
	result := log10SumLog10Slice(finalRow)
	hmm.finish(haplotypeBases, nextHaplotypeBases, hapStartIndex, result)
	return result, nil
}
