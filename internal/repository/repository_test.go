package repository

import (
	"bitwise74/docs-api/internal/apperr"
	"bitwise74/docs-api/internal/model"
	"bitwise74/docs-api/internal/testutil"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFile(userID string, documentID *string, order int) *model.File {
	return &model.File{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		UserID:     userID,
		Latest:     true,
		Order:      order,
		MimeType:   "text/plain",
		Size:       10,
		CreateDate: time.Now(),
	}
}

func TestFilesByDocument(t *testing.T) {
	conn := testutil.NewDB(t)
	r := New(conn)
	ctx := context.Background()

	u := testutil.CreateUser(t, conn, "alice", "key", 1<<20)
	d := testutil.CreateDocument(t, conn, u.ID, "Doc")

	b := newFile(u.ID, &d.ID, 1)
	a := newFile(u.ID, &d.ID, 0)
	orphan := newFile(u.ID, nil, 0)
	old := newFile(u.ID, &d.ID, 2)
	old.Latest = false

	for _, f := range []*model.File{a, b, orphan, old} {
		require.NoError(t, r.Files.Create(ctx, f))
	}

	files, err := r.Files.ListByDocument(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, a.ID, files[0].ID)
	assert.Equal(t, b.ID, files[1].ID)

	n, err := r.Files.NextOrder(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, r.Files.Delete(ctx, a.ID))
	n, err = r.Files.NextOrder(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "a gap left by a deleted file is not reused")

	empty := testutil.CreateDocument(t, conn, u.ID, "Empty")
	n, err = r.Files.NextOrder(ctx, empty.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	orphans, err := r.Files.ListOrphans(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, orphan.ID, orphans[0].ID)
}

func TestFilesGetOwnedAndMany(t *testing.T) {
	conn := testutil.NewDB(t)
	r := New(conn)
	ctx := context.Background()

	alice := testutil.CreateUser(t, conn, "alice", "key", 1<<20)
	bob := testutil.CreateUser(t, conn, "bob", "key", 1<<20)

	f1 := newFile(alice.ID, nil, 0)
	f2 := newFile(alice.ID, nil, 0)
	require.NoError(t, r.Files.Create(ctx, f1))
	require.NoError(t, r.Files.Create(ctx, f2))

	_, err := r.Files.GetOwned(ctx, f1.ID, bob.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := r.Files.GetOwned(ctx, f1.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, f1.ID, got.ID)

	many, err := r.Files.GetMany(ctx, []string{f2.ID, f1.ID})
	require.NoError(t, err)
	require.Len(t, many, 2)
	assert.Equal(t, f2.ID, many[0].ID)
	assert.Equal(t, f1.ID, many[1].ID)

	_, err = r.Files.GetMany(ctx, []string{f1.ID, "missing"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, r.Files.Delete(ctx, f1.ID))
	_, err = r.Files.Get(ctx, f1.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFileVersions(t *testing.T) {
	conn := testutil.NewDB(t)
	r := New(conn)
	ctx := context.Background()

	u := testutil.CreateUser(t, conn, "alice", "key", 1<<20)

	first := newFile(u.ID, nil, 0)
	require.NoError(t, r.Files.Create(ctx, first))

	for v := 1; v <= 2; v++ {
		f := newFile(u.ID, nil, 0)
		f.VersionID = &first.ID
		f.Version = v
		require.NoError(t, r.Files.Create(ctx, f))
	}

	versions, err := r.Files.ListVersions(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, 2, versions[0].Version)
	assert.Equal(t, 0, versions[2].Version)
}

func TestTagList(t *testing.T) {
	conn := testutil.NewDB(t)
	r := New(conn)
	ctx := context.Background()

	u := testutil.CreateUser(t, conn, "alice", "key", 1<<20)
	d := testutil.CreateDocument(t, conn, u.ID, "Doc")

	var ids []string
	for _, name := range []string{"beta", "alpha"} {
		tag := &model.Tag{ID: uuid.NewString(), Name: name, Color: "#3a87ad", UserID: u.ID, CreateDate: time.Now()}
		require.NoError(t, r.Tags.Create(ctx, tag))
		ids = append(ids, tag.ID)
	}

	require.NoError(t, r.Tags.UpdateTagList(ctx, d.ID, append(ids, ids[0])))

	tags, err := r.Tags.ListByDocument(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "alpha", tags[0].Name)

	require.NoError(t, r.Tags.Delete(ctx, ids[0], u.ID))

	tags, err = r.Tags.ListByDocument(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "alpha", tags[0].Name)

	err = r.Tags.Delete(ctx, ids[0], u.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCheckPermission(t *testing.T) {
	conn := testutil.NewDB(t)
	r := New(conn)
	ctx := context.Background()

	u := testutil.CreateUser(t, conn, "alice", "key", 1<<20)
	d := testutil.CreateDocument(t, conn, u.ID, "Doc")
	testutil.Grant(t, conn, d.ID, "group-1", model.PermRead)

	tests := []struct {
		name    string
		perm    model.PermType
		targets []string
		want    bool
	}{
		{"owner write", model.PermWrite, []string{u.ID}, true},
		{"group read", model.PermRead, []string{"someone", "group-1"}, true},
		{"group write", model.PermWrite, []string{"group-1"}, false},
		{"stranger", model.PermRead, []string{"someone"}, false},
		{"no targets", model.PermRead, nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := r.ACL.CheckPermission(ctx, d.ID, tc.perm, tc.targets)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}

	require.NoError(t, conn.Delete(d).Error)
	ok, err := r.ACL.CheckPermission(ctx, d.ID, model.PermRead, []string{u.ID})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatsQuota(t *testing.T) {
	conn := testutil.NewDB(t)
	r := New(conn)
	ctx := context.Background()

	u := testutil.CreateUser(t, conn, "alice", "key", 100)

	require.NoError(t, r.Stats.Reserve(ctx, u.ID, 60))
	err := r.Stats.Reserve(ctx, u.ID, 50)
	assert.ErrorIs(t, err, apperr.ErrQuota)

	require.NoError(t, r.Stats.Release(ctx, u.ID, 60))
	require.NoError(t, r.Stats.Release(ctx, u.ID, 60))

	s, err := r.Stats.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.UsedStorage)
	assert.Equal(t, 0, s.UploadedFiles)

	err = r.Stats.Reserve(ctx, "nobody", 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTransactionRollback(t *testing.T) {
	conn := testutil.NewDB(t)
	r := New(conn)
	ctx := context.Background()

	u := testutil.CreateUser(t, conn, "alice", "key", 100)
	boom := errors.New("boom")

	err := r.Transaction(ctx, func(tx *Repository) error {
		if err := tx.Stats.Reserve(ctx, u.ID, 10); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	s, err := r.Stats.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.UsedStorage)
}

func TestUserGroups(t *testing.T) {
	conn := testutil.NewDB(t)
	r := New(conn)
	ctx := context.Background()

	u := testutil.CreateUser(t, conn, "alice", "secret-key", 100)
	require.NoError(t, r.Users.AddToGroup(ctx, u.ID, "g1"))

	groups, err := r.Users.GroupIDs(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, groups)

	key, err := r.Users.PrivateKey(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", key)

	_, err = r.Users.PrivateKey(ctx, "nobody")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := r.Users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}
