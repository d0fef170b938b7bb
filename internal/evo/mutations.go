package evo

import (
	"math/rand"
	"slices"

	"genelab/internal/dna"
)

// Operator names are "<level>.<kind>".
const (
	KindCreation      = "creation"
	KindDeletion      = "deletion"
	KindDuplication   = "duplication"
	KindInversion     = "inversion"
	KindTranslocation = "translocation"
	KindPoint         = "point"
)

type listOperator struct {
	kind  string
	level Level
	apply func(m Mutation, genes [][]byte) [][]byte
}

func (o listOperator) Name() string {
	return o.level.String() + "." + o.kind
}

func (o listOperator) Level() Level {
	return o.level
}

func (o listOperator) Apply(m Mutation, d dna.DNA) dna.DNA {
	if m.Rand == nil {
		return d
	}
	return dna.New(o.apply(m, d.GeneSlices())...)
}

// DefaultOperators returns every built-in operator: five per level plus the
// codon point mutation.
func DefaultOperators() []Operator {
	return []Operator{
		listOperator{kind: KindCreation, level: LevelDNA, apply: createGene},
		listOperator{kind: KindDeletion, level: LevelDNA, apply: func(m Mutation, genes [][]byte) [][]byte {
			return deleteOne(m.Rand, genes)
		}},
		listOperator{kind: KindDuplication, level: LevelDNA, apply: func(m Mutation, genes [][]byte) [][]byte {
			if m.MaxGenes > 0 && len(genes) >= m.MaxGenes {
				return genes
			}
			return duplicateOne(m.Rand, genes, slices.Clone[[]byte])
		}},
		listOperator{kind: KindInversion, level: LevelDNA, apply: func(m Mutation, genes [][]byte) [][]byte {
			return invertPair(m.Rand, genes)
		}},
		listOperator{kind: KindTranslocation, level: LevelDNA, apply: func(m Mutation, genes [][]byte) [][]byte {
			return translocate(m.Rand, genes)
		}},

		listOperator{kind: KindCreation, level: LevelGene, apply: onGene(func(m Mutation, codons []byte) []byte {
			return append(codons, m.Codon())
		})},
		listOperator{kind: KindDeletion, level: LevelGene, apply: onGene(func(m Mutation, codons []byte) []byte {
			return deleteOne(m.Rand, codons)
		})},
		listOperator{kind: KindDuplication, level: LevelGene, apply: onGene(func(m Mutation, codons []byte) []byte {
			return duplicateOne(m.Rand, codons, identity[byte])
		})},
		listOperator{kind: KindInversion, level: LevelGene, apply: onGene(func(m Mutation, codons []byte) []byte {
			return invertPair(m.Rand, codons)
		})},
		listOperator{kind: KindTranslocation, level: LevelGene, apply: onGene(func(m Mutation, codons []byte) []byte {
			return translocate(m.Rand, codons)
		})},

		listOperator{kind: KindPoint, level: LevelCodon, apply: onCodon(func(m Mutation, codons []byte, at int) []byte {
			codons[at] = m.Codon()
			return codons
		})},
		listOperator{kind: KindCreation, level: LevelCodon, apply: onCodon(func(m Mutation, codons []byte, at int) []byte {
			return slices.Insert(codons, at, m.Codon())
		})},
		listOperator{kind: KindDeletion, level: LevelCodon, apply: onCodon(func(m Mutation, codons []byte, at int) []byte {
			if len(codons) < 2 {
				return codons
			}
			return slices.Delete(codons, at, at+1)
		})},
		listOperator{kind: KindDuplication, level: LevelCodon, apply: onCodon(func(m Mutation, codons []byte, at int) []byte {
			return slices.Insert(codons, at+1, codons[at])
		})},
		listOperator{kind: KindInversion, level: LevelCodon, apply: onCodon(func(m Mutation, codons []byte, at int) []byte {
			if len(codons) < 2 {
				return codons
			}
			other := otherIndex(m.Rand, len(codons), at)
			codons[at], codons[other] = codons[other], codons[at]
			return codons
		})},
		listOperator{kind: KindTranslocation, level: LevelCodon, apply: onCodon(func(m Mutation, codons []byte, at int) []byte {
			return moveTo(codons, at, m.Rand.Intn(len(codons)))
		})},
	}
}

func createGene(m Mutation, genes [][]byte) [][]byte {
	if m.MaxGenes > 0 && len(genes) >= m.MaxGenes {
		return genes
	}
	return slices.Insert(genes, m.Rand.Intn(len(genes)+1), m.Gene())
}

// onGene lifts a codon-list edit to a randomly chosen gene.
func onGene(fn func(m Mutation, codons []byte) []byte) func(Mutation, [][]byte) [][]byte {
	return func(m Mutation, genes [][]byte) [][]byte {
		if len(genes) == 0 {
			return genes
		}
		i := m.Rand.Intn(len(genes))
		genes[i] = fn(m, genes[i])
		return genes
	}
}

// onCodon anchors an edit on one random codon of a random gene. Empty genes
// have no anchor and stay as they are.
func onCodon(fn func(m Mutation, codons []byte, at int) []byte) func(Mutation, [][]byte) [][]byte {
	return onGene(func(m Mutation, codons []byte) []byte {
		if len(codons) == 0 {
			return codons
		}
		return fn(m, codons, m.Rand.Intn(len(codons)))
	})
}

func identity[T any](v T) T {
	return v
}

func deleteOne[T any](rng *rand.Rand, s []T) []T {
	if len(s) < 2 {
		return s
	}
	i := rng.Intn(len(s))
	return slices.Delete(s, i, i+1)
}

func duplicateOne[T any](rng *rand.Rand, s []T, clone func(T) T) []T {
	if len(s) == 0 {
		return s
	}
	return append(s, clone(s[rng.Intn(len(s))]))
}

func invertPair[T any](rng *rand.Rand, s []T) []T {
	if len(s) < 2 {
		return s
	}
	i := rng.Intn(len(s))
	j := otherIndex(rng, len(s), i)
	s[i], s[j] = s[j], s[i]
	return s
}

func translocate[T any](rng *rand.Rand, s []T) []T {
	if len(s) < 2 {
		return s
	}
	return moveTo(s, rng.Intn(len(s)), rng.Intn(len(s)))
}

// moveTo removes s[from] and reinserts it so that it ends up at index to.
func moveTo[T any](s []T, from, to int) []T {
	if from == to {
		return s
	}
	v := s[from]
	s = slices.Delete(s, from, from+1)
	return slices.Insert(s, to, v)
}

// otherIndex picks an index in [0, n) different from i; n must be at least 2.
func otherIndex(rng *rand.Rand, n, i int) int {
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	return j
}
