package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/postjournal/internal/model"
	"github.com/d60-Lab/postjournal/internal/repository"
	"github.com/d60-Lab/postjournal/internal/testutil"
)

func TestUserRepository_CRUD(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	u := &model.User{Username: "alice", Email: "alice@example.com", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, u))
	assert.True(t, model.IsID(u.ID))

	got, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, repo.UpdateField(ctx, u.ID, model.FieldUsername, "alice2"))
	require.NoError(t, repo.UpdateField(ctx, u.ID, model.FieldPassword, "h2"))
	got, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice2", got.Username)
	assert.Equal(t, "h2", got.PasswordHash)

	err = repo.UpdateField(ctx, model.NewID(), model.FieldEmail, "x@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	n, err := repo.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = repo.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPostRepository_VisibilityAndCascade(t *testing.T) {
	db := testutil.NewDB(t)
	posts := repository.NewPostRepository(db)
	comments := repository.NewCommentRepository(db)
	ctx := context.Background()

	visible := &model.Post{AuthorID: model.NewID(), Title: "t", Content: "c"}
	hidden := &model.Post{AuthorID: visible.AuthorID, Title: "t2", Content: "c2", Blocked: true}
	require.NoError(t, posts.Create(ctx, visible))
	require.NoError(t, posts.Create(ctx, hidden))

	_, err := posts.FindVisible(ctx, hidden.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = posts.FindByID(ctx, hidden.ID)
	assert.NoError(t, err)

	list, err := posts.ListVisible(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, visible.ID, list[0].ID)

	require.NoError(t, comments.Insert(ctx, &model.Comment{PostID: visible.ID, AuthorID: model.NewID(), Content: "a"}))
	require.NoError(t, comments.Insert(ctx, &model.Comment{PostID: visible.ID, AuthorID: model.NewID(), Content: "b", Blocked: true}))

	shown, err := comments.ListByPost(ctx, visible.ID, false)
	require.NoError(t, err)
	assert.Len(t, shown, 1)
	all, err := comments.ListByPost(ctx, visible.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	n, err := posts.Delete(ctx, visible.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	all, err = comments.ListByPost(ctx, visible.ID, true)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPostRepository_DeleteByAuthor(t *testing.T) {
	db := testutil.NewDB(t)
	posts := repository.NewPostRepository(db)
	comments := repository.NewCommentRepository(db)
	ctx := context.Background()

	author := model.NewID()
	p := &model.Post{AuthorID: author, Title: "t", Content: "c"}
	other := &model.Post{AuthorID: model.NewID(), Title: "o", Content: "o"}
	require.NoError(t, posts.Create(ctx, p))
	require.NoError(t, posts.Create(ctx, other))
	require.NoError(t, comments.Insert(ctx, &model.Comment{PostID: p.ID, AuthorID: model.NewID(), Content: "x"}))
	require.NoError(t, comments.Insert(ctx, &model.Comment{PostID: other.ID, AuthorID: author, Content: "y"}))

	n, err := posts.DeleteByAuthor(ctx, author)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	left, err := comments.ListByPost(ctx, p.ID, true)
	require.NoError(t, err)
	assert.Empty(t, left)
	kept, err := comments.ListByPost(ctx, other.ID, true)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestCommentRepository_ListByPostInsertionOrder(t *testing.T) {
	db := testutil.NewDB(t)
	comments := repository.NewCommentRepository(db)
	ctx := context.Background()

	postID := model.NewID()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ids := []string{
		"ffffffffffffffffffffffffffffffff",
		"00000000000000000000000000000000",
		"88888888888888888888888888888888",
	}
	for i, id := range ids {
		require.NoError(t, comments.Insert(ctx, &model.Comment{ID: id, PostID: postID, AuthorID: "a", Content: string(rune('a' + i)), CreatedAt: at}))
	}

	list, err := comments.ListByPost(ctx, postID, true)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Less(t, list[0].Seq, list[1].Seq)

	got, err := comments.FindByID(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, "b", got.Content)
}

func TestCommentRepository_CountByDay(t *testing.T) {
	db := testutil.NewDB(t)
	comments := repository.NewCommentRepository(db)
	ctx := context.Background()

	day1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	postID := model.NewID()
	for _, c := range []*model.Comment{
		{PostID: postID, AuthorID: "a", Content: "1", CreatedAt: day1},
		{PostID: postID, AuthorID: "a", Content: "2", CreatedAt: day1.Add(time.Hour), Blocked: true},
		{PostID: postID, AuthorID: "a", Content: "3", CreatedAt: day2},
		{PostID: postID, AuthorID: "a", Content: "4", CreatedAt: day2.Add(48 * time.Hour)},
	} {
		require.NoError(t, comments.Insert(ctx, c))
	}

	res, err := comments.CountByDay(ctx, day1.Truncate(24*time.Hour), day2.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []repository.DailyCount{
		{Date: "2024-03-01", Total: 2, Blocked: 1},
		{Date: "2024-03-02", Total: 1, Blocked: 0},
	}, res)
}

func TestJournalRepository_OrderAndRedaction(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewJournalRepository(db)
	ctx := context.Background()

	subject := model.NewID()
	ts := model.Now()
	// 同一时间戳的两条记录按插入顺序倒序返回
	require.NoError(t, repo.Append(ctx, &model.AuditRecord{SubjectID: subject, Field: model.FieldEmail, StateBefore: "a@x.com", StateAfter: "b@x.com", Timestamp: ts}))
	require.NoError(t, repo.Append(ctx, &model.AuditRecord{SubjectID: subject, Field: model.FieldEmail, StateBefore: "b@x.com", StateAfter: "c@x.com", Timestamp: ts}))
	require.NoError(t, repo.Append(ctx, &model.AuditRecord{SubjectID: subject, Field: model.FieldPassword, StateBefore: "old", StateAfter: "new", Timestamp: ts.Add(time.Second)}))
	require.NoError(t, repo.Append(ctx, &model.AuditRecord{SubjectID: model.NewID(), Field: model.FieldEmail, StateBefore: "z", StateAfter: "y", Timestamp: ts}))

	all, err := repo.Query(ctx, subject, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, model.FieldPassword, all[0].Field)
	assert.Equal(t, model.RedactedValue, all[0].StateBefore)
	assert.Equal(t, model.RedactedValue, all[0].StateAfter)

	field := model.FieldEmail
	emails, err := repo.Query(ctx, subject, &field)
	require.NoError(t, err)
	require.Len(t, emails, 2)
	assert.Equal(t, "c@x.com", emails[0].StateAfter)
	assert.Equal(t, emails[0].StateBefore, emails[1].StateAfter)

	n, err := repo.DeleteBySubject(ctx, subject)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	empty, err := repo.Query(ctx, subject, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
