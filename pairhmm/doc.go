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

/*
Package pairhmm computes the probability that a sequencing read was
produced from a candidate haplotype sequence, taking substitution,
insertion, and deletion errors into account. The probability is
returned as a base-10 logarithm, and is the atomic operation consumed
in large volumes by genotyping components: for every candidate
haplotype at a genomic site, against every overlapping read, one such
likelihood is computed.

The computation evaluates a three-state (match/insertion/deletion)
hidden Markov model over a dynamic-programming grid indexed by read
position and haplotype position. The alignment may start and end at
any haplotype offset. Per-base Phred-scaled quality scores determine
the emission and transition probabilities: base qualities for
substitutions, separate insertion-open and deletion-open penalties,
and a gap-continuation penalty for extending an open gap.

Three evaluators are provided. NewLog10PairHMM(true) evaluates the
model in log10 space with exact log-sum computations and serves as the
correctness reference. NewLog10PairHMM(false) replaces the exact
log-sum with a table-driven Jacobian approximation, and
NewLoglessPairHMM evaluates the model in linear space with rescaled
initial conditions; both agree with the reference within 1e-3.

Evaluators reuse their scratch matrices across calls and can
additionally reuse matrix columns computed for the previous haplotype
when consecutive haplotypes share a prefix. An evaluator instance is
not safe for concurrent use; create one instance per worker instead.
BatchPairHMM queues many independent computations and evaluates them
in parallel with one pooled evaluator per worker.
*/
package pairhmm
