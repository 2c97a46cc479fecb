package permissions

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GrantStore handles persistence of permission grants
type GrantStore struct {
	db *gorm.DB
}

// NewGrantStore creates a new grant store
func NewGrantStore(db *gorm.DB) *GrantStore {
	return &GrantStore{db: db}
}

// Grant records a permission grant. Granting the same permission twice is
// a no-op that still reports success.
func (s *GrantStore) Grant(ctx context.Context, guildID, userID int64, perm Permission, grantedBy int64) error {
	if !Valid(perm) {
		return fmt.Errorf("unknown permission %q", perm)
	}

	grant := Grant{
		GuildID:    guildID,
		UserID:     userID,
		Permission: perm,
		GrantedBy:  &grantedBy,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "guild_id"}, {Name: "user_id"}, {Name: "permission"}},
			DoNothing: true,
		}).
		Create(&grant).Error
	if err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}
	return nil
}

// Revoke removes a grant and reports whether a row was actually removed,
// distinguishing "revoked" from "nothing to revoke".
func (s *GrantStore) Revoke(ctx context.Context, guildID, userID int64, perm Permission) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("guild_id = ? AND user_id = ? AND permission = ?", guildID, userID, perm).
		Delete(&Grant{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to revoke permission: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Has reports whether a specific grant exists
func (s *GrantStore) Has(ctx context.Context, guildID, userID int64, perm Permission) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Grant{}).
		Where("guild_id = ? AND user_id = ? AND permission = ?", guildID, userID, perm).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check permission: %w", err)
	}
	return count > 0, nil
}

// UserPermissions returns every permission granted to a user in a guild
func (s *GrantStore) UserPermissions(ctx context.Context, guildID, userID int64) ([]Permission, error) {
	var perms []Permission
	err := s.db.WithContext(ctx).
		Model(&Grant{}).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Order("permission").
		Pluck("permission", &perms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user permissions: %w", err)
	}
	return perms, nil
}

// UsersWithPermission returns the IDs of every user holding a permission
// in a guild
func (s *GrantStore) UsersWithPermission(ctx context.Context, guildID int64, perm Permission) ([]int64, error) {
	var userIDs []int64
	err := s.db.WithContext(ctx).
		Model(&Grant{}).
		Where("guild_id = ? AND permission = ?", guildID, perm).
		Order("user_id").
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users with permission: %w", err)
	}
	return userIDs, nil
}
