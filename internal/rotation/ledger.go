package rotation

import (
	"slices"

	"github.com/mmynk/susu/internal/models"
)

// IsMember reports whether userID belongs to g.
func IsMember(g *models.Group, userID string) bool {
	return slices.Contains(g.Members, userID)
}

// AddMember appends userID to the group's members and collection order.
func AddMember(g *models.Group, userID string) error {
	if len(g.Members) >= g.MemberLimit {
		return ErrCapacityExceeded
	}
	if IsMember(g, userID) {
		return ErrAlreadyMember
	}
	g.Members = append(g.Members, userID)
	g.CollectionOrder = append(g.CollectionOrder, userID)
	return nil
}

// orderIndex returns the position of userID in the collection order, or -1.
func orderIndex(g *models.Group, userID string) int {
	return slices.Index(g.CollectionOrder, userID)
}
