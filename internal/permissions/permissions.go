// Package permissions holds the grant relation and the authorization
// resolver that decides what an actor may do within a guild.
package permissions

import "time"

// Permission is one restricted action a grant can authorize
type Permission string

// The fixed permission set. edit_all/remove_all widen scope to anyone's
// quotes; untimeout and change_nickname gate the two moderation helpers
// and have no implicit own-scope fallback.
const (
	EditOwn        Permission = "edit_own"
	EditAll        Permission = "edit_all"
	RemoveOwn      Permission = "remove_own"
	RemoveAll      Permission = "remove_all"
	Untimeout      Permission = "untimeout"
	ChangeNickname Permission = "change_nickname"
)

// All lists every known permission in display order
func All() []Permission {
	return []Permission{EditOwn, EditAll, RemoveOwn, RemoveAll, Untimeout, ChangeNickname}
}

// Name returns the human-readable label for a permission
func Name(p Permission) string {
	switch p {
	case EditOwn:
		return "Edit own quotes"
	case EditAll:
		return "Edit all quotes"
	case RemoveOwn:
		return "Remove own quotes"
	case RemoveAll:
		return "Remove all quotes"
	case Untimeout:
		return "Untimeout members"
	case ChangeNickname:
		return "Change nicknames"
	default:
		return string(p)
	}
}

// Valid reports whether p is one of the known permissions
func Valid(p Permission) bool {
	for _, known := range All() {
		if p == known {
			return true
		}
	}
	return false
}

// Grant is a persisted record authorizing one user to perform one
// restricted action within one guild. Its existence is the sole source
// of truth for the relational strategy.
type Grant struct {
	ID         int64      `gorm:"primaryKey" json:"id"`
	GuildID    int64      `gorm:"not null;uniqueIndex:permissions_guild_user_perm_idx" json:"guild_id"`
	UserID     int64      `gorm:"not null;uniqueIndex:permissions_guild_user_perm_idx" json:"user_id"`
	Permission Permission `gorm:"not null;uniqueIndex:permissions_guild_user_perm_idx" json:"permission"`
	GrantedBy  *int64     `json:"granted_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName specifies the table name for Grant
func (Grant) TableName() string {
	return "permissions"
}
