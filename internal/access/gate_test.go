package access

import (
	"bitwise74/docs-api/internal/apperr"
	"bitwise74/docs-api/internal/model"
	"bitwise74/docs-api/internal/repository"
	"bitwise74/docs-api/internal/testutil"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckFile(t *testing.T) {
	conn := testutil.NewDB(t)
	repo := repository.New(conn)
	g := NewGate(repo.ACL, repo.Users)
	ctx := context.Background()

	alice := testutil.CreateUser(t, conn, "alice", "k", 1)
	bob := testutil.CreateUser(t, conn, "bob", "k", 1)
	doc := testutil.CreateDocument(t, conn, alice.ID, "Doc")
	testutil.Grant(t, conn, doc.ID, "share-1", model.PermRead)

	orphan := &model.File{ID: "o", UserID: alice.ID}
	attached := &model.File{ID: "a", UserID: alice.ID, DocumentID: &doc.ID}

	caller := func(userID, share string) Caller {
		c, err := g.Caller(ctx, userID, share)
		require.NoError(t, err)
		return c
	}

	tests := []struct {
		name   string
		file   *model.File
		caller Caller
		perm   model.PermType
		want   error
	}{
		{"orphan owner", orphan, caller(alice.ID, ""), model.PermRead, nil},
		{"orphan other user", orphan, caller(bob.ID, ""), model.PermRead, apperr.ErrForbidden},
		{"orphan anonymous", orphan, caller("", ""), model.PermRead, apperr.ErrNotFound},
		{"orphan share", orphan, caller("", "share-1"), model.PermRead, apperr.ErrNotFound},
		{"attached owner", attached, caller(alice.ID, ""), model.PermWrite, nil},
		{"attached other user", attached, caller(bob.ID, ""), model.PermRead, apperr.ErrForbidden},
		{"attached share read", attached, caller("", "share-1"), model.PermRead, nil},
		{"attached share write", attached, caller("", "share-1"), model.PermWrite, apperr.ErrNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := g.CheckFile(ctx, tc.file, tc.caller, tc.perm)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestTargetIDs(t *testing.T) {
	conn := testutil.NewDB(t)
	repo := repository.New(conn)
	g := NewGate(repo.ACL, repo.Users)
	ctx := context.Background()

	u := testutil.CreateUser(t, conn, "alice", "k", 1)
	require.NoError(t, repo.Users.AddToGroup(ctx, u.ID, "team"))

	ids, err := g.TargetIDs(ctx, u.ID, "share")
	require.NoError(t, err)
	assert.Equal(t, []string{u.ID, "team", "share"}, ids)

	ids, err = g.TargetIDs(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCheckDocumentHidesExistence(t *testing.T) {
	conn := testutil.NewDB(t)
	repo := repository.New(conn)
	g := NewGate(repo.ACL, repo.Users)
	ctx := context.Background()

	alice := testutil.CreateUser(t, conn, "alice", "k", 1)
	bob := testutil.CreateUser(t, conn, "bob", "k", 1)
	doc := testutil.CreateDocument(t, conn, alice.ID, "Doc")

	err := g.CheckDocument(ctx, doc.ID, Caller{UserID: bob.ID, TargetIDs: []string{bob.ID}}, model.PermRead)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = g.CheckDocument(ctx, doc.ID, Caller{UserID: alice.ID, TargetIDs: []string{alice.ID}}, model.PermWrite)
	assert.NoError(t, err)
}
