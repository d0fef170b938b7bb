package dna

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// Separator ends the current gene in the flat wire form.
	Separator byte = 0x00
	// Sentinel wraps the framed wire form on both sides.
	Sentinel byte = 0xFF
)

var (
	ErrFraming = errors.New("dna framing violation")
	ErrIndex   = errors.New("gene index out of range")
)

// DNA is an immutable sequence of genes. Every edit returns a new value and
// never shares gene storage with its source.
type DNA struct {
	genes [][]byte
}

// New copies the given genes into a DNA. A lone empty gene has the same
// flat form as no genes at all, so it is stored as no genes.
func New(genes ...[]byte) DNA {
	if len(genes) == 1 && len(genes[0]) == 0 {
		return DNA{}
	}
	return DNA{genes: cloneGenes(genes)}
}

// Parse decodes the flat form. Separators split genes, so consecutive
// separators produce empty genes and an empty buffer produces no genes.
func Parse(buf []byte) DNA {
	if len(buf) == 0 {
		return DNA{}
	}
	parts := bytes.Split(buf, []byte{Separator})
	return DNA{genes: cloneGenes(parts)}
}

// ParseFramed decodes the sentinel-wrapped form.
func ParseFramed(buf []byte) (DNA, error) {
	if len(buf) == 0 || buf[0] != Sentinel {
		return DNA{}, fmt.Errorf("%w: doesn't start with sentinel", ErrFraming)
	}
	if len(buf) < 2 || buf[len(buf)-1] != Sentinel {
		return DNA{}, fmt.Errorf("%w: doesn't end with sentinel", ErrFraming)
	}
	return Parse(buf[1 : len(buf)-1]), nil
}

func MustParseFramed(buf []byte) DNA {
	d, err := ParseFramed(buf)
	if err != nil {
		panic(err)
	}
	return d
}

func (d DNA) Genes() int {
	return len(d.genes)
}

// Len is the total number of codons across all genes.
func (d DNA) Len() int {
	total := 0
	for _, g := range d.genes {
		total += len(g)
	}
	return total
}

func (d DNA) Gene(i int) []byte {
	if i < 0 || i >= len(d.genes) {
		return nil
	}
	return append([]byte(nil), d.genes[i]...)
}

// GeneSlices returns a deep copy of the gene list.
func (d DNA) GeneSlices() [][]byte {
	return cloneGenes(d.genes)
}

func (d DNA) Erase(i int) (DNA, error) {
	if i < 0 || i >= len(d.genes) {
		return DNA{}, fmt.Errorf("%w: erase %d of %d", ErrIndex, i, len(d.genes))
	}
	genes := make([][]byte, 0, len(d.genes)-1)
	genes = append(genes, d.genes[:i]...)
	genes = append(genes, d.genes[i+1:]...)
	return New(genes...), nil
}

// Insert places gene before index i; i == Genes() appends.
func (d DNA) Insert(i int, gene []byte) (DNA, error) {
	if i < 0 || i > len(d.genes) {
		return DNA{}, fmt.Errorf("%w: insert %d of %d", ErrIndex, i, len(d.genes))
	}
	genes := make([][]byte, 0, len(d.genes)+1)
	genes = append(genes, d.genes[:i]...)
	genes = append(genes, gene)
	genes = append(genes, d.genes[i:]...)
	return New(genes...), nil
}

func (d DNA) PushBack(gene []byte) DNA {
	genes := make([][]byte, 0, len(d.genes)+1)
	genes = append(genes, d.genes...)
	genes = append(genes, gene)
	return New(genes...)
}

// Bytes encodes the flat form.
func (d DNA) Bytes() []byte {
	return bytes.Join(d.genes, []byte{Separator})
}

// FramedBytes encodes the sentinel-wrapped form.
func (d DNA) FramedBytes() []byte {
	flat := d.Bytes()
	out := make([]byte, 0, len(flat)+2)
	out = append(out, Sentinel)
	out = append(out, flat...)
	return append(out, Sentinel)
}

// Equal reports byte-exact equality including gene boundaries.
func (d DNA) Equal(other DNA) bool {
	if len(d.genes) != len(other.genes) {
		return false
	}
	for i := range d.genes {
		if !bytes.Equal(d.genes[i], other.genes[i]) {
			return false
		}
	}
	return true
}

func (d DNA) Fingerprint() string {
	sum := sha1.Sum(d.FramedBytes())
	return hex.EncodeToString(sum[:])
}

func (d DNA) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, gene := range d.genes {
		if i > 0 {
			b.WriteByte('|')
		}
		for j, codon := range gene {
			if j > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%02x", codon)
		}
	}
	b.WriteByte(']')
	return b.String()
}

func cloneGenes(genes [][]byte) [][]byte {
	if len(genes) == 0 {
		return nil
	}
	out := make([][]byte, len(genes))
	for i, g := range genes {
		out[i] = append([]byte{}, g...)
	}
	return out
}
