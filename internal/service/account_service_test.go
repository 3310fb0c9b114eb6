package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/postjournal/internal/auth"
	"github.com/d60-Lab/postjournal/internal/model"
	"github.com/d60-Lab/postjournal/internal/repository"
	"github.com/d60-Lab/postjournal/internal/testutil"
)

type accountFixture struct {
	db        *gorm.DB
	users     repository.UserRepository
	posts     repository.PostRepository
	comments  repository.CommentRepository
	journal   repository.JournalRepository
	authority *auth.Authority
	svc       *AccountService
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &accountFixture{
		db:        db,
		users:     repository.NewUserRepository(db),
		posts:     repository.NewPostRepository(db),
		comments:  repository.NewCommentRepository(db),
		journal:   repository.NewJournalRepository(db),
		authority: auth.NewAuthority("test-secret", time.Hour, "test", nil),
	}
	f.svc = NewAccountService(db, f.users, f.posts, f.journal, f.authority)
	f.svc.SetHashCost(bcrypt.MinCost)
	return f
}

func (f *accountFixture) register(t *testing.T, email string) *model.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterInput{Username: "alice", Email: email, Password: "Secret1!"})
	require.NoError(t, err)
	return u
}

func TestAccount_RegisterAndLogin(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	u := f.register(t, "  Alice@Example.COM ")
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "Secret1!", u.PasswordHash)

	res, err := f.svc.Login(ctx, "ALICE@example.com", "Secret1!")
	require.NoError(t, err)
	assert.Equal(t, "bearer", res.TokenType)

	claims, err := f.authority.Validate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	_, err = f.svc.Login(ctx, "alice@example.com", "Wrong1!!")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.Login(ctx, "nobody@example.com", "Secret1!")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAccount_RegisterValidation(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.register(t, "taken@example.com")

	cases := []RegisterInput{
		{Username: "", Email: "a@example.com", Password: "Secret1!"},
		{Username: "bob", Email: "not-an-email", Password: "Secret1!"},
		{Username: "bob", Email: "b@example.com", Password: "weakpass"},
		{Username: "bob", Email: "TAKEN@example.com", Password: "Secret1!"},
	}
	for _, in := range cases {
		_, err := f.svc.Register(ctx, in)
		assert.ErrorIs(t, err, ErrValidation, in)
	}
}

func TestAccount_LogoutRevokesToken(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.register(t, "a@example.com")

	res, err := f.svc.Login(ctx, "a@example.com", "Secret1!")
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(ctx, res.Token))

	_, err = f.authority.Validate(ctx, res.Token)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAccount_EmailChangeJournaled(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	u1 := f.register(t, "a@x.com")

	updated, err := f.svc.UpdateEmail(ctx, u1.ID, "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", updated.Email)

	field := model.FieldEmail
	recs, err := f.svc.Journal().Query(ctx, u1.ID, &field)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "a@x.com", recs[0].StateBefore)
	assert.Equal(t, "b@x.com", recs[0].StateAfter)
	assert.Equal(t, u1.ID, recs[0].SubjectID)
}

func TestAccount_UsernameChainConsistency(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	u := f.register(t, "a@example.com")

	names := []string{"n1", "n2", "n3", "n4", "n5"}
	for _, n := range names {
		_, err := f.svc.UpdateUsername(ctx, u.ID, n)
		require.NoError(t, err)
	}

	field := model.FieldUsername
	recs, err := f.svc.Journal().Query(ctx, u.ID, &field)
	require.NoError(t, err)
	require.Len(t, recs, len(names))

	assert.Equal(t, "n5", recs[0].StateAfter)
	assert.Equal(t, "alice", recs[len(recs)-1].StateBefore)
	for i := 0; i+1 < len(recs); i++ {
		assert.False(t, recs[i].Timestamp.Before(recs[i+1].Timestamp))
		assert.Equal(t, recs[i+1].StateAfter, recs[i].StateBefore)
	}
}

func TestAccount_PasswordChangeRedacted(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	u := f.register(t, "a@example.com")

	_, err := f.svc.UpdatePassword(ctx, u.ID, "Another2@")
	require.NoError(t, err)
	_, err = f.svc.UpdatePassword(ctx, u.ID, "weak")
	assert.ErrorIs(t, err, ErrValidation)

	recs, err := f.svc.Journal().Query(ctx, u.ID, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, model.FieldPassword, recs[0].Field)
	assert.Equal(t, model.RedactedValue, recs[0].StateBefore)
	assert.Equal(t, model.RedactedValue, recs[0].StateAfter)

	_, err = f.svc.Login(ctx, "a@example.com", "Another2@")
	assert.NoError(t, err)
	_, err = f.svc.Login(ctx, "a@example.com", "Secret1!")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAccount_UnchangedValueStillJournaled(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	u := f.register(t, "a@example.com")

	for _, name := range []string{"bob", "bob", "carol"} {
		_, err := f.svc.UpdateUsername(ctx, u.ID, name)
		require.NoError(t, err)
	}
	_, err := f.svc.UpdateEmail(ctx, u.ID, "A@example.com")
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = f.svc.UpdatePassword(ctx, u.ID, "Secret1!")
		require.NoError(t, err)
	}

	username := model.FieldUsername
	names, err := f.svc.Journal().Query(ctx, u.ID, &username)
	require.NoError(t, err)
	require.Len(t, names, 3)
	assert.Equal(t, []string{"bob", "bob", "alice"}, []string{names[0].StateBefore, names[1].StateBefore, names[2].StateBefore})
	assert.Equal(t, []string{"carol", "bob", "bob"}, []string{names[0].StateAfter, names[1].StateAfter, names[2].StateAfter})

	email := model.FieldEmail
	emails, err := f.svc.Journal().Query(ctx, u.ID, &email)
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "a@example.com", emails[0].StateBefore)
	assert.Equal(t, "a@example.com", emails[0].StateAfter)

	password := model.FieldPassword
	pw, err := f.svc.Journal().Query(ctx, u.ID, &password)
	require.NoError(t, err)
	require.Len(t, pw, 2)
	for _, r := range pw {
		assert.Equal(t, model.RedactedValue, r.StateBefore)
		assert.Equal(t, model.RedactedValue, r.StateAfter)
	}

	got, err := f.svc.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol", got.Username)
}

func TestAccount_EmailTakenByOtherUser(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.register(t, "a@example.com")
	b := f.register(t, "b@example.com")

	_, err := f.svc.UpdateEmail(ctx, b.ID, "a@example.com")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.UpdateEmail(ctx, b.ID, "bad")
	assert.ErrorIs(t, err, ErrValidation)

	recs, err := f.svc.Journal().Query(ctx, b.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestAccount_UpdateUnknownUser(t *testing.T) {
	f := newAccountFixture(t)
	_, err := f.svc.UpdateUsername(context.Background(), model.NewID(), "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

// failingJournal 追加审计记录时报错，用来验证字段更新会一起回滚
type failingJournal struct {
	repository.JournalRepository
}

func (j failingJournal) WithTx(tx *gorm.DB) repository.JournalRepository {
	return failingJournal{j.JournalRepository.WithTx(tx)}
}

func (failingJournal) Append(context.Context, *model.AuditRecord) error {
	return errors.New("disk full")
}

func TestAccount_AppendFailureRollsBackUpdate(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	u := f.register(t, "a@example.com")

	svc := NewAccountService(f.db, f.users, f.posts, failingJournal{f.journal}, f.authority)
	_, err := svc.UpdateUsername(ctx, u.ID, "mallory")
	assert.ErrorIs(t, err, ErrPersistence)

	got, err := f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}

func TestAccount_MeField(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	u := f.register(t, "a@example.com")

	v, err := f.svc.MeField(ctx, u.ID, "email")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", v)

	v, err = f.svc.MeField(ctx, u.ID, "created_at")
	require.NoError(t, err)
	assert.Len(t, v, len(model.TimeLayout))

	_, err = f.svc.MeField(ctx, u.ID, "password")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.MeField(ctx, u.ID, "shoe_size")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAccount_DeleteCascades(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	u := f.register(t, "a@example.com")
	other := f.register(t, "b@example.com")

	_, err := f.svc.UpdateUsername(ctx, u.ID, "renamed")
	require.NoError(t, err)
	_, err = f.svc.UpdateUsername(ctx, other.ID, "kept")
	require.NoError(t, err)

	post := &model.Post{AuthorID: u.ID, Title: "t", Content: "c"}
	require.NoError(t, f.posts.Create(ctx, post))
	require.NoError(t, f.comments.Insert(ctx, &model.Comment{PostID: post.ID, AuthorID: other.ID, Content: "hi"}))

	res, err := f.svc.Login(ctx, "a@example.com", "Secret1!")
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteAccount(ctx, u.ID, res.Token))

	_, err = f.users.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.posts.FindByID(ctx, post.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	left, err := f.comments.ListByPost(ctx, post.ID, true)
	require.NoError(t, err)
	assert.Empty(t, left)

	recs, err := f.svc.Journal().Query(ctx, u.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, recs)
	kept, err := f.svc.Journal().Query(ctx, other.ID, nil)
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	_, err = f.authority.Validate(ctx, res.Token)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)

	assert.ErrorIs(t, f.svc.DeleteAccount(ctx, u.ID, ""), ErrNotFound)
}
