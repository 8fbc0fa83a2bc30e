package models

// Group represents a set of members sharing expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Work Lunch").
	Name string

	// Description is optional free text.
	Description string

	// AdminID is the member who administers the group. The admin cannot be
	// removed from the group.
	AdminID string

	// Members is the membership of the group in join order.
	Members []Member

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// MemberIDs returns the member identifiers in join order.
func (g *Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.ID
	}
	return ids
}

// HasMember reports whether memberID belongs to the group.
func (g *Group) HasMember(memberID string) bool {
	for _, m := range g.Members {
		if m.ID == memberID {
			return true
		}
	}
	return false
}

// Member is one participant of a group. Member IDs are opaque to the ledger;
// the authentication layer maps verified callers onto them.
type Member struct {
	ID string

	GroupID string

	// Name is the display name.
	Name string

	// Email is used by the invitation shell; the ledger never reads it.
	Email string

	JoinedAt int64
}
