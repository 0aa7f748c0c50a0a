package service

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/rushteam/courserec/core"
)

// HashEmbedder 是确定性的离线 Embedder：按词做特征哈希并 L2 归一化。
// 用于测试与本地演示（courserec --demo），语义能力仅限于词面重合。
type HashEmbedder struct {
	dim int
}

func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 64
	}
	return &HashEmbedder{dim: dim}
}

func (h *HashEmbedder) Name() string { return "hash" }

func (h *HashEmbedder) Dimension() int { return h.dim }

func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float64, h.dim)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		hs := fnv.New64a()
		_, _ = hs.Write([]byte(tok))
		sum := hs.Sum64()
		idx := int(sum % uint64(h.dim))
		if sum&(1<<63) != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

var _ core.Embedder = (*HashEmbedder)(nil)
