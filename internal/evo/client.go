package evo

import (
	"math/rand"
	"strings"

	"genelab/internal/dna"
)

// Crossover strategy names as they appear in lineage records.
const (
	CrossoverSequential  = "crossover.sequential"
	CrossoverAlternating = "crossover.alternating"
	CrossoverRandomized  = "crossover.randomized"
)

// Client is one candidate: a DNA plus the inclusive codon bound used when
// mutation generates new material.
type Client struct {
	DNA      dna.DNA
	Alphabet int
}

func NewClient(d dna.DNA, alphabet int) Client {
	return Client{DNA: d, Alphabet: alphabet}
}

func (c Client) Mutate(rng *rand.Rand, policy MutationPolicy) Client {
	out, _ := c.MutateTraced(rng, policy)
	return out
}

// MutateTraced mutates like Mutate and also returns the applied operator
// names joined with "+".
func (c Client) MutateTraced(rng *rand.Rand, policy MutationPolicy) (Client, string) {
	policy = policy.withDefaults()
	m := c.mutation(rng, policy)
	d := c.DNA
	applied := make([]string, 0, DefaultMaxMutations)
	count := policy.Count.MutationCount(d, rng)
	for i := 0; i < count; i++ {
		op := policy.chooseOperator(rng)
		if op == nil {
			continue
		}
		d = op.Apply(m, d)
		applied = append(applied, op.Name())
	}
	return Client{DNA: d, Alphabet: c.Alphabet}, strings.Join(applied, "+")
}

func (c Client) Crossover(rng *rand.Rand, other Client, policy MutationPolicy) Client {
	out, _ := c.CrossoverTraced(rng, other, policy)
	return out
}

// CrossoverTraced recombines the gene lists of c and other with a uniformly
// chosen strategy. The child keeps c's alphabet.
func (c Client) CrossoverTraced(rng *rand.Rand, other Client, policy MutationPolicy) (Client, string) {
	policy = policy.withDefaults()
	a, b := c.DNA.GeneSlices(), other.DNA.GeneSlices()

	var genes [][]byte
	var op string
	switch rng.Intn(3) {
	case 0:
		genes, op = append(a, b...), CrossoverSequential
	case 1:
		genes, op = alternate(a, b), CrossoverAlternating
	default:
		genes, op = randomInterleave(rng, a, b), CrossoverRandomized
	}
	if policy.MaxGenes > 0 && len(genes) > policy.MaxGenes {
		genes = genes[:policy.MaxGenes]
	}

	child := Client{DNA: dna.New(genes...), Alphabet: c.Alphabet}
	if rng.Intn(policy.CrossoverMutateOneIn) == 0 {
		var applied string
		child, applied = child.MutateTraced(rng, policy)
		if applied != "" {
			op += "+" + applied
		}
	}
	return child, op
}

// Clean drops genes with no codons.
func (c Client) Clean() Client {
	genes := c.DNA.GeneSlices()
	kept := genes[:0]
	for _, g := range genes {
		if len(g) > 0 {
			kept = append(kept, g)
		}
	}
	return Client{DNA: dna.New(kept...), Alphabet: c.Alphabet}
}

func (c Client) mutation(rng *rand.Rand, policy MutationPolicy) Mutation {
	return Mutation{
		Rand:          rng,
		Alphabet:      c.Alphabet,
		MaxGeneLength: policy.MaxGeneLength,
		MaxGenes:      policy.MaxGenes,
	}
}

func alternate(a, b [][]byte) [][]byte {
	out := make([][]byte, 0, len(a)+len(b))
	for i := 0; i < len(a) || i < len(b); i++ {
		if i < len(a) {
			out = append(out, a[i])
		}
		if i < len(b) {
			out = append(out, b[i])
		}
	}
	return out
}

// randomInterleave flips a coin per step and falls back to whichever parent
// still has genes.
func randomInterleave(rng *rand.Rand, a, b [][]byte) [][]byte {
	out := make([][]byte, 0, len(a)+len(b))
	for len(a) > 0 || len(b) > 0 {
		takeA := len(b) == 0 || (len(a) > 0 && rng.Intn(2) == 0)
		if takeA {
			out, a = append(out, a[0]), a[1:]
		} else {
			out, b = append(out, b[0]), b[1:]
		}
	}
	return out
}
