// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/pdiddy/ner-corpus/pkg/types"
)

// Assemble filters, shuffles and partitions seqs. Sequences without any
// entity label are dropped. The rest are shuffled with a generator seeded
// from cfg.Seed and cut into floor(n*TrainRatio) train sequences,
// floor(n*ValidationRatio) validation sequences and the remainder as test.
// The same input and seed always give the same corpus. seqs is not
// modified.
func Assemble(seqs []types.TaggedSequence, cfg types.SplitConfig, labels []string) types.Corpus {
	kept := make([]types.TaggedSequence, 0, len(seqs))
	for _, s := range seqs {
		if s.HasEntity() {
			kept = append(kept, s)
		}
	}

	seed := uint64(cfg.Seed)
	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(len(kept), func(i, j int) { kept[i], kept[j] = kept[j], kept[i] })

	n := len(kept)
	nTrain := int(math.Floor(float64(n) * cfg.TrainRatio))
	nVal := int(math.Floor(float64(n) * cfg.ValidationRatio))
	if nTrain+nVal > n {
		nVal = n - nTrain
	}

	return types.Corpus{
		Labels:     append([]string(nil), labels...),
		Train:      kept[:nTrain:nTrain],
		Validation: kept[nTrain : nTrain+nVal : nTrain+nVal],
		Test:       kept[nTrain+nVal:],
	}
}

// Fingerprint returns a hex SHA-256 digest of the corpus content: the label
// vocabulary and every partition in order. Two builds from the same input
// with the same seed have the same fingerprint.
func Fingerprint(c types.Corpus) string {
	h := sha256.New()
	fmt.Fprintf(h, "labels\x1f%s\x1e", strings.Join(c.Labels, "\x1f"))
	for _, split := range types.Splits {
		fmt.Fprintf(h, "split\x1f%s\x1e", split)
		for _, seq := range c.Partition(split) {
			writeSequence(h, seq)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeSequence(h hash.Hash, seq types.TaggedSequence) {
	fmt.Fprintf(h, "%s\x1f%d\x1f", seq.DocumentID, seq.Offset)
	for _, t := range seq.Tokens {
		fmt.Fprintf(h, "%s\x1d%s\x1f", t.Token, t.Label)
	}
	h.Write([]byte{0x1e})
}
