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

var (
	initialCondition      = math.Pow(2, 1020)
	initialConditionLog10 = log10(initialCondition)
)

// A LoglessPairHMM evaluates the pair HMM in linear space, with the
// initial conditions scaled up by 2^1020 to keep intermediate
// probabilities away from underflow. The scale is divided out of the
// final result in log10 space. This is the fastest evaluator; it
// agrees with the exact log-space reference within 1e-3.
type LoglessPairHMM struct {
	hmmState
}

// NewLoglessPairHMM creates a linear-space evaluator.
func NewLoglessPairHMM() *LoglessPairHMM {
	return new(LoglessPairHMM)
}

// Initialize implements the PairHMM interface.
func (hmm *LoglessPairHMM) Initialize(maxReadLength, maxHaplotypeLength int) {
	hmm.initialize(maxReadLength, maxHaplotypeLength, 0)
}

// ComputeLog10Likelihood implements the PairHMM interface.
func (hmm *LoglessPairHMM) ComputeLog10Likelihood(haplotypeBases, readBases, baseQuals, insQuals, delQuals, gapQuals []byte, recacheReadValues bool, nextHaplotypeBases []byte) (float64, error) {
	if err := hmm.prepare(haplotypeBases, readBases, baseQuals, insQuals, delQuals, gapQuals); err != nil {
		return 0, err
	}
	hapStartIndex := hmm.startIndex(recacheReadValues)
	if hmm.previousHaplotypeLength != len(haplotypeBases) {
		initialValue := initialCondition / float64(len(haplotypeBases))
		pDeletion0 := hmm.deletion.rowView(0)
		for j := 0; j < hmm.paddedHaplotypeLength; j++ {
			pDeletion0[j] = initialValue
		}
	}
	if !hmm.constantsAreInitialized || recacheReadValues {
		for i := range readBases {
			trans := hmm.transition.rowView(i + 1)
			trans[matchToMatch] = matchToMatchProb(insQuals[i], delQuals[i])
			trans[indelToMatch] = qualToProb[gapQuals[i]]
			trans[matchToInsertion] = qualToErrorProb[insQuals[i]]
			trans[insertionToInsertion] = qualToErrorProb[gapQuals[i]]
			trans[matchToDeletion] = qualToErrorProb[delQuals[i]]
			trans[deletionToDeletion] = qualToErrorProb[gapQuals[i]]
		}
		hmm.constantsAreInitialized = true
	}
	for i := range readBases {
		x := readBases[i]
		qual := baseQuals[i]
		matchPrior := qualToProb[qual]
		nonMatchPrior := qualToErrorProb[qual]
		if !hmm.noTristateCorrection {
			nonMatchPrior /= 3
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
			pMatchI1[j+1] = prior * (pMatchI[j]*trans[matchToMatch] +
				pInsertionI[j]*trans[indelToMatch] +
				pDeletionI[j]*trans[indelToMatch])
			pInsertionI1[j+1] = pMatchI[j+1]*trans[matchToInsertion] + pInsertionI[j+1]*trans[insertionToInsertion]
			pDeletionI1[j+1] = pMatchI1[j]*trans[matchToDeletion] + pDeletionI1[j]*trans[deletionToDeletion]
		}
	}
	pMatchEnd := hmm.match.rowView(len(readBases))
	pInsertionEnd := hmm.insertion.rowView(len(readBases))
	sum := floats.Sum(pMatchEnd[1:hmm.paddedHaplotypeLength]) +
		floats.Sum(pInsertionEnd[1:hmm.paddedHaplotypeLength])
	result := log10(sum) - initialConditionLog10
	hmm.finish(haplotypeBases, nextHaplotypeBases, hapStartIndex, result)
	return result, nil
}
