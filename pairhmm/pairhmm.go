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
	"fmt"
	"log"
	"math"

	"github.com/exascience/pargo/parallel"
	"github.com/pkg/errors"
)

// indices into a per-read-position row of transition probabilities
const (
	matchToMatch = iota
	indelToMatch
	matchToInsertion
	insertionToInsertion
	matchToDeletion
	deletionToDeletion
	transProbsSize
)

// A PairHMM evaluates the pairwise likelihood model for one
// (haplotype, read) pair at a time. Implementations own mutable
// scratch state and are not safe for concurrent use; create one
// instance per worker.
type PairHMM interface {
	// Initialize allocates scratch matrices large enough for any read
	// and haplotype submitted until the next Initialize call. It must
	// be called at least once before ComputeLog10Likelihood.
	Initialize(maxReadLength, maxHaplotypeLength int)

	// ComputeLog10Likelihood returns the log10 probability that the
	// read was produced from the haplotype. The four quality arrays
	// run parallel to readBases. When recacheReadValues is false, the
	// read and quality arrays must be unchanged from the previous
	// call, and the haplotype must share with the previously evaluated
	// haplotype the prefix that was announced through
	// nextHaplotypeBases on that call; only the matrix columns from
	// the first differing position onward are then recomputed.
	ComputeLog10Likelihood(haplotypeBases, readBases, baseQuals, insQuals, delQuals, gapQuals []byte, recacheReadValues bool, nextHaplotypeBases []byte) (float64, error)

	// DoNotUseTristateCorrection selects the numeric policy that
	// scores a mismatch with the full base error probability instead
	// of a third of it.
	DoNotUseTristateCorrection()
}

// ErrUninitialized is returned when a likelihood computation is
// attempted before Initialize was called.
var ErrUninitialized = errors.New("likelihood computation attempted on an uninitialized pair HMM")

// A DimensionError reports a read or haplotype that exceeds the
// dimensions the pair HMM was initialized with.
type DimensionError struct {
	Dimension   string
	Length, Max int
}

func (err *DimensionError) Error() string {
	return fmt.Sprintf("%v length %v exceeds the initialized maximum %v", err.Dimension, err.Length, err.Max)
}

// FindFirstPositionWhereHaplotypesDiffer returns the 0-based index of
// the first position at which the two haplotypes differ, or the
// length of the shorter haplotype if one is a prefix of the other.
func FindFirstPositionWhereHaplotypesDiffer(haplotype1, haplotype2 []byte) int {
	minLength := minInt(len(haplotype1), len(haplotype2))
	for i := 0; i < minLength; i++ {
		if haplotype1[i] != haplotype2[i] {
			return i
		}
	}
	return minLength
}

// hmmState is the scratch state shared by all evaluators: the three
// dynamic-programming planes, the per-read-row transition
// probabilities, and the prefix-cache bookkeeping.
type hmmState struct {
	maxReadLength, maxHaplotypeLength             int
	paddedMaxReadLength, paddedMaxHaplotypeLength int
	paddedReadLength, paddedHaplotypeLength       int
	previousHaplotypeLength                       int
	hapStartIndex                                 int
	initialized                                   bool
	constantsAreInitialized                       bool
	noTristateCorrection                          bool
	match, insertion, deletion                    float64Matrix
	transition                                    float64Matrix
}

func (hmm *hmmState) initialize(maxReadLength, maxHaplotypeLength int, initial float64) {
	if maxReadLength <= 0 || maxHaplotypeLength <= 0 {
		log.Panicf("invalid pair HMM dimensions %vx%v", maxReadLength, maxHaplotypeLength)
	}
	hmm.maxReadLength = maxReadLength
	hmm.maxHaplotypeLength = maxHaplotypeLength
	hmm.paddedMaxReadLength = maxReadLength + 1
	hmm.paddedMaxHaplotypeLength = maxHaplotypeLength + 1
	parallel.Do(
		func() { hmm.match.ensureSize(hmm.paddedMaxReadLength, hmm.paddedMaxHaplotypeLength, initial) },
		func() { hmm.insertion.ensureSize(hmm.paddedMaxReadLength, hmm.paddedMaxHaplotypeLength, initial) },
		func() { hmm.deletion.ensureSize(hmm.paddedMaxReadLength, hmm.paddedMaxHaplotypeLength, initial) },
		func() { hmm.transition.ensureSize(hmm.paddedMaxReadLength, transProbsSize, 0) },
	)
	hmm.previousHaplotypeLength = -1
	hmm.hapStartIndex = 0
	hmm.constantsAreInitialized = false
	hmm.initialized = true
}

// DoNotUseTristateCorrection implements the PairHMM interface.
func (hmm *hmmState) DoNotUseTristateCorrection() {
	hmm.noTristateCorrection = true
}

func (hmm *hmmState) prepare(haplotypeBases, readBases, baseQuals, insQuals, delQuals, gapQuals []byte) error {
	if !hmm.initialized {
		return ErrUninitialized
	}
	if len(haplotypeBases) == 0 {
		return errors.New("empty haplotype")
	}
	if len(readBases) == 0 {
		return errors.New("empty read")
	}
	if len(haplotypeBases) > hmm.maxHaplotypeLength {
		return &DimensionError{Dimension: "haplotype", Length: len(haplotypeBases), Max: hmm.maxHaplotypeLength}
	}
	if len(readBases) > hmm.maxReadLength {
		return &DimensionError{Dimension: "read", Length: len(readBases), Max: hmm.maxReadLength}
	}
	for _, quals := range [4][]byte{baseQuals, insQuals, delQuals, gapQuals} {
		if len(quals) != len(readBases) {
			return errors.Errorf("quality array length %v does not match read length %v", len(quals), len(readBases))
		}
	}
	hmm.paddedReadLength = len(readBases) + 1
	hmm.paddedHaplotypeLength = len(haplotypeBases) + 1
	return nil
}

func (hmm *hmmState) startIndex(recacheReadValues bool) int {
	if recacheReadValues {
		return 0
	}
	return hmm.hapStartIndex
}

// finish validates the computed likelihood and records the prefix
// length shared with the announced next haplotype, so that the next
// call can skip the columns that remain valid. Cache validity is
// decided by explicit prefix comparison only, never by aliasing.
func (hmm *hmmState) finish(haplotypeBases, nextHaplotypeBases []byte, hapStartIndex int, result float64) {
	if math.IsNaN(result) || result > 0 {
		log.Panicf("invalid pair HMM log10 likelihood %v", result)
	}
	nextHapStartIndex := 0
	if len(nextHaplotypeBases) == len(haplotypeBases) {
		nextHapStartIndex = FindFirstPositionWhereHaplotypesDiffer(haplotypeBases, nextHaplotypeBases)
	}
	// the next evaluation writes columns from its start index onward,
	// so an earlier start than the current one invalidates the lookahead
	if nextHapStartIndex < hapStartIndex {
		nextHapStartIndex = 0
	}
	hmm.hapStartIndex = nextHapStartIndex
	hmm.previousHaplotypeLength = len(haplotypeBases)
}

func maxInt(x, y int) int {
	if x > y {
		return x
	}
	return y
}

func minInt(x, y int) int {
	if x < y {
		return x
	}
	return y
}
