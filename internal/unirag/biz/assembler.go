package biz

import (
	"fmt"
	"math"
	"strings"

	"github.com/kart-io/unirag/internal/model"
)

const (
	blockSeparator  = "\n\n---\n\n"
	truncatedMarker = "\n\n[...контекст обрезан...]"
)

// Assembler 将检索命中组装为生成上下文与引用列表。
type Assembler struct {
	// maxRunes 上下文预算（字符数）。
	maxRunes int
}

// NewAssembler 创建组装器，maxRunes <= 0 时使用 4000。
func NewAssembler(maxRunes int) *Assembler {
	if maxRunes <= 0 {
		maxRunes = 4000
	}
	return &Assembler{maxRunes: maxRunes}
}

// Assemble 按排名顺序生成 "[Университет i]" 块。超出预算时按字符截断并追加标记，
// 引用列表始终完整。
func (a *Assembler) Assemble(hits []model.SearchHit) (string, []model.SourceCitation) {
	sources := make([]model.SourceCitation, 0, len(hits))
	blocks := make([]string, 0, len(hits))

	for i, h := range hits {
		md := h.Metadata
		sources = append(sources, model.SourceCitation{
			ID:             md.ID,
			Name:           md.Name,
			City:           md.City,
			Category:       md.Category,
			RelevanceScore: Relevance(h.Distance),
			Programs:       md.Programs,
			EntScoreRange:  fmt.Sprintf("%d-%d", md.EntMinScore, md.EntMaxScore),
			ContactInfo: model.ContactInfo{
				Phone:   md.Phone,
				Email:   md.Email,
				Address: md.Address,
			},
		})
		blocks = append(blocks, fmt.Sprintf("[Университет %d]:\n%s", i+1, h.Text))
	}

	text := strings.Join(blocks, blockSeparator)
	runes := []rune(text)
	if len(runes) > a.maxRunes {
		text = string(runes[:a.maxRunes]) + truncatedMarker
	}
	return text, sources
}

// Relevance 将余弦距离转换为 [0,1] 的相关度，保留三位小数。
func Relevance(distance float64) float64 {
	r := 1 - distance
	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	return math.Round(r*1000) / 1000
}
