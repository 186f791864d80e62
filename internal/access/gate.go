// Package access decides whether a caller may read or write a file or a
// document
package access

import (
	"bitwise74/docs-api/internal/apperr"
	"bitwise74/docs-api/internal/model"
	"context"
	"fmt"
)

type ACLChecker interface {
	CheckPermission(ctx context.Context, documentID string, perm model.PermType, targetIDs []string) (bool, error)
}

type GroupLookup interface {
	GroupIDs(ctx context.Context, userID string) ([]string, error)
}

// Caller is whoever issued a request. UserID is empty for anonymous callers
type Caller struct {
	UserID    string
	TargetIDs []string
}

func (c Caller) Authenticated() bool {
	return c.UserID != ""
}

type Gate struct {
	acl    ACLChecker
	groups GroupLookup
}

func NewGate(acl ACLChecker, groups GroupLookup) *Gate {
	return &Gate{acl: acl, groups: groups}
}

// CheckPermission asks the ACL store on every call, nothing is cached
func (g *Gate) CheckPermission(ctx context.Context, documentID string, perm model.PermType, targetIDs []string) (bool, error) {
	ok, err := g.acl.CheckPermission(ctx, documentID, perm, targetIDs)
	if err != nil {
		return false, fmt.Errorf("failed to check %s permission, %w", perm, err)
	}

	return ok, nil
}

// IsOwner reports whether callerID uploaded the file
func IsOwner(f *model.File, callerID string) bool {
	return callerID != "" && f.UserID == callerID
}

// denied hides the resource from anonymous callers
func denied(c Caller) error {
	if c.Authenticated() {
		return apperr.ErrForbidden
	}

	return apperr.ErrNotFound
}

// CheckFile fails unless the caller may access the file with perm. Orphans
// are reachable by their owner only
func (g *Gate) CheckFile(ctx context.Context, f *model.File, c Caller, perm model.PermType) error {
	if f.IsOrphan() {
		if IsOwner(f, c.UserID) {
			return nil
		}
		return fmt.Errorf("file %s: %w", f.ID, denied(c))
	}

	ok, err := g.CheckPermission(ctx, *f.DocumentID, perm, c.TargetIDs)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("file %s: %w", f.ID, denied(c))
	}

	return nil
}

// CheckDocument fails with apperr.ErrNotFound unless the caller holds perm on
// the document. Document existence is never revealed
func (g *Gate) CheckDocument(ctx context.Context, documentID string, c Caller, perm model.PermType) error {
	ok, err := g.CheckPermission(ctx, documentID, perm, c.TargetIDs)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("document %s: %w", documentID, apperr.ErrNotFound)
	}

	return nil
}

// TargetIDs returns every identity the caller is checked against: the user,
// their groups and the share token when one was given
func (g *Gate) TargetIDs(ctx context.Context, userID, shareID string) ([]string, error) {
	var ids []string

	if userID != "" {
		ids = append(ids, userID)

		groups, err := g.groups.GroupIDs(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve groups, %w", err)
		}
		ids = append(ids, groups...)
	}

	if shareID != "" {
		ids = append(ids, shareID)
	}

	return ids, nil
}

// Caller resolves the target ids of a user and builds a Caller
func (g *Gate) Caller(ctx context.Context, userID, shareID string) (Caller, error) {
	ids, err := g.TargetIDs(ctx, userID, shareID)
	if err != nil {
		return Caller{}, err
	}

	return Caller{UserID: userID, TargetIDs: ids}, nil
}
