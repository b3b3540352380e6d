package rotation

import "github.com/mmynk/susu/internal/models"

// SelectFirstCollector picks uniformly among members other than the creator,
// so the creator is never guaranteed the first pool. Falls back to the creator
// when nobody else has joined.
func (e *Engine) SelectFirstCollector(g *models.Group) string {
	candidates := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		if m != g.CreatedBy {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return g.CreatedBy
	}
	return candidates[e.source().IntN(len(candidates))]
}
