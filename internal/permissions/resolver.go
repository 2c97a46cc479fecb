package permissions

import (
	"context"
)

// Source is one authority that can allow a permission. The resolver
// composes sources with OR semantics, so "static admin list" and
// "relational grant lookup" stay separate strategies instead of inline
// isAdmin-or-hasGrant checks at every call site.
type Source interface {
	Allows(ctx context.Context, guildID, userID int64, perm Permission) (bool, error)
}

// AdminList is the static, process-wide admin allow-list. Members satisfy
// every permission check in every guild.
type AdminList []int64

// Allows implements Source
func (a AdminList) Allows(_ context.Context, _ int64, userID int64, _ Permission) (bool, error) {
	return a.Contains(userID), nil
}

// Contains reports whether a user ID is on the list
func (a AdminList) Contains(userID int64) bool {
	for _, id := range a {
		if id == userID {
			return true
		}
	}
	return false
}

// GrantSource allows a permission when a matching grant row exists
type GrantSource struct {
	store *GrantStore
}

// NewGrantSource creates a Source backed by the grant relation
func NewGrantSource(store *GrantStore) *GrantSource {
	return &GrantSource{store: store}
}

// Allows implements Source
func (g *GrantSource) Allows(ctx context.Context, guildID, userID int64, perm Permission) (bool, error) {
	return g.store.Has(ctx, guildID, userID, perm)
}

// Resolver answers authorization questions by consulting its sources in
// order and allowing when any of them does.
type Resolver struct {
	admins  AdminList
	sources []Source
}

// NewResolver composes the static admin list with the grant relation
func NewResolver(admins AdminList, store *GrantStore) *Resolver {
	return &Resolver{
		admins:  admins,
		sources: []Source{admins, NewGrantSource(store)},
	}
}

// IsAdmin reports static allow-list membership. Admin-only operations
// (grant, revoke, list) are gated on this alone.
func (r *Resolver) IsAdmin(userID int64) bool {
	return r.admins.Contains(userID)
}

// Allowed reports whether any source authorizes the permission
func (r *Resolver) Allowed(ctx context.Context, guildID, userID int64, perm Permission) (bool, error) {
	for _, src := range r.sources {
		ok, err := src.Allows(ctx, guildID, userID, perm)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// ResolveEdit returns (canEditOwn, canEditAll). The all right implies the
// own right; admins hold both.
func (r *Resolver) ResolveEdit(ctx context.Context, guildID, userID int64) (bool, bool, error) {
	return r.resolveScoped(ctx, guildID, userID, EditOwn, EditAll)
}

// ResolveRemove returns (canRemoveOwn, canRemoveAll), symmetric to
// ResolveEdit.
func (r *Resolver) ResolveRemove(ctx context.Context, guildID, userID int64) (bool, bool, error) {
	return r.resolveScoped(ctx, guildID, userID, RemoveOwn, RemoveAll)
}

func (r *Resolver) resolveScoped(ctx context.Context, guildID, userID int64, own, all Permission) (bool, bool, error) {
	canAll, err := r.Allowed(ctx, guildID, userID, all)
	if err != nil {
		return false, false, err
	}
	if canAll {
		return true, true, nil
	}
	canOwn, err := r.Allowed(ctx, guildID, userID, own)
	if err != nil {
		return false, false, err
	}
	return canOwn, false, nil
}
