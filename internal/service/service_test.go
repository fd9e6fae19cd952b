package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"playlog/internal/core/auth"
	"playlog/internal/core/cache"
	"playlog/internal/domain"
	"playlog/internal/repo"
	"playlog/internal/testutil"
)

type fixture struct {
	users   *UserService
	catalog *CatalogService
	library *LibraryService
	posts   *PostService
	games   *repo.GameRepo
	jwt     *auth.JWTer
}

func setup(t *testing.T, c *cache.Cache) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	l := zap.NewNop()
	jwter := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "playlog"}
	userRepo := repo.NewUserRepo(db)
	gameRepo := repo.NewGameRepo(db)
	catalog := NewCatalogService(gameRepo, c, time.Minute, l)
	return &fixture{
		users:   NewUserService(userRepo, jwter, l),
		catalog: catalog,
		library: NewLibraryService(userRepo, catalog, l),
		posts:   NewPostService(repo.NewPostRepo(db), l),
		games:   gameRepo,
		jwt:     jwter,
	}
}

func (f *fixture) register(t *testing.T, name string) *domain.User {
	t.Helper()
	res, err := f.users.Register(context.Background(), RegisterInput{Username: name, Email: name + "@x.com", Password: "pw123"})
	require.NoError(t, err)
	return res.User
}

func TestRegister(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	res, err := f.users.Register(ctx, RegisterInput{Username: "Alice", Email: "Alice@X.com", Password: "pw123"})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.User.Username)
	assert.Equal(t, "alice@x.com", res.User.Email)
	assert.NotEqual(t, "pw123", res.User.PasswordHash)
	assert.True(t, f.users.VerifyPassword(res.User, "pw123"))
	assert.Nil(t, res.User.Games)

	claims, err := f.jwt.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID())

	stored, err := f.users.FindByUsername(ctx, "ALICE")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "pw123", stored.PasswordHash)
	assert.True(t, f.users.VerifyPassword(stored, "pw123"))
}

func TestRegister_Errors(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	f.register(t, "alice")

	tests := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"missing username", RegisterInput{Email: "b@x.com", Password: "pw"}, domain.ErrValidation},
		{"missing email", RegisterInput{Username: "bob", Password: "pw"}, domain.ErrValidation},
		{"missing password", RegisterInput{Username: "bob", Email: "b@x.com"}, domain.ErrValidation},
		{"username taken", RegisterInput{Username: "alice", Email: "new@x.com", Password: "pw"}, domain.ErrConflict},
		{"username taken other case", RegisterInput{Username: "ALICE", Email: "new@x.com", Password: "pw"}, domain.ErrConflict},
		{"email taken", RegisterInput{Username: "bob", Email: "alice@x.com", Password: "pw"}, domain.ErrConflict},
		{"password over 72 bytes", RegisterInput{Username: "bob", Email: "b@x.com", Password: strings.Repeat("p", 73)}, domain.ErrValidation},
		{"username too long", RegisterInput{Username: strings.Repeat("b", 65), Email: "b@x.com", Password: "pw"}, domain.ErrValidation},
		{"email too long", RegisterInput{Username: "bob", Email: strings.Repeat("b", 190) + "@x.com", Password: "pw"}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.Register(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSignIn(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	u := f.register(t, "alice")

	res, err := f.users.SignIn(ctx, "alice@x.com", "pw123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)
	assert.NotEmpty(t, res.Token)

	res, err = f.users.SignIn(ctx, "Alice", "pw123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)

	_, err = f.users.SignIn(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.users.SignIn(ctx, "nobody", "pw123")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.users.SignIn(ctx, "", "pw123")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateProfile(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	u := f.register(t, "alice")
	f.register(t, "bob")

	_, err := f.library.LogGame(ctx, "alice", &domain.Game{ID: "G1"}, nil)
	require.NoError(t, err)

	updated, err := f.users.UpdateProfile(ctx, "alice", &domain.ProfilePatch{
		Username: "alice2",
		Bio:      "hi",
		Website:  "https://a.example",
		Socials:  map[string]string{"twitter": "@alice"},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)

	got, err := f.users.FindByUsername(ctx, "alice2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hi", got.Bio)
	assert.Equal(t, "@alice", got.Socials["twitter"])
	assert.Contains(t, got.Games, "G1", "library untouched by profile update")
	assert.Equal(t, u.PasswordHash, got.PasswordHash, "password not rehashed")

	_, err = f.users.UpdateProfile(ctx, "alice2", &domain.ProfilePatch{Username: "bob"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.users.UpdateProfile(ctx, "ghost", &domain.ProfilePatch{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.users.UpdateProfile(ctx, "alice2", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	invalid := []struct {
		name  string
		patch domain.ProfilePatch
	}{
		{"password over 72 bytes", domain.ProfilePatch{Password: strings.Repeat("p", 100)}},
		{"username too long", domain.ProfilePatch{Username: strings.Repeat("a", 65)}},
		{"website too long", domain.ProfilePatch{Website: strings.Repeat("w", 256)}},
		{"avatar too long", domain.ProfilePatch{AvatarURL: strings.Repeat("u", 513)}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.UpdateProfile(ctx, "alice2", &tt.patch)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	_, err = f.users.UpdateProfile(ctx, "alice2", &domain.ProfilePatch{Password: "newpw"})
	require.NoError(t, err)
	_, err = f.users.SignIn(ctx, "alice2", "newpw")
	assert.NoError(t, err)
}

func TestUpdateAvatar(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	f.register(t, "alice")

	require.NoError(t, f.users.UpdateAvatar(ctx, "alice", "https://cdn.example/Alice.png"))
	got, err := f.users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/Alice.png", got.AvatarURL)

	assert.ErrorIs(t, f.users.UpdateAvatar(ctx, "alice", ""), domain.ErrValidation)
	assert.ErrorIs(t, f.users.UpdateAvatar(ctx, "", "u"), domain.ErrValidation)
	assert.ErrorIs(t, f.users.UpdateAvatar(ctx, "ghost", "u"), domain.ErrNotFound)
}

func TestEnsureGame_Idempotent(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	first, err := f.catalog.EnsureGame(ctx, &domain.Game{ID: "G1", Name: "Chess", AvgRating: 4.5})
	require.NoError(t, err)
	second, err := f.catalog.EnsureGame(ctx, &domain.Game{ID: "G1", Name: "Checkers"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "Chess", second.Name)

	games, err := f.games.FindByIDs(ctx, []string{"G1"})
	require.NoError(t, err)
	assert.Len(t, games, 1)

	_, err = f.catalog.EnsureGame(ctx, &domain.Game{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestEnsureGame_WithCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	c := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	f := setup(t, c)
	ctx := context.Background()

	_, err = f.catalog.EnsureGame(ctx, &domain.Game{ID: "G1", Name: "Chess"})
	require.NoError(t, err)
	assert.False(t, mr.Exists("playlog:game:G1"), "misses are not cached")

	got, err := f.catalog.EnsureGame(ctx, &domain.Game{ID: "G1", Name: "Other"})
	require.NoError(t, err)
	assert.Equal(t, "Chess", got.Name)
	assert.True(t, mr.Exists("playlog:game:G1"))

	got, err = f.catalog.EnsureGame(ctx, &domain.Game{ID: "G1", Name: "Other"})
	require.NoError(t, err)
	assert.Equal(t, "Chess", got.Name)
}

func TestLibrary_LogListRemove(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	f.register(t, "alice")

	games, err := f.library.ListGames(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, games)

	res, err := f.library.LogGame(ctx, "alice",
		&domain.Game{ID: "G1", Name: "Chess"},
		&domain.Review{UserRating: 9, Status: domain.StatusPlayed})
	require.NoError(t, err)
	assert.Equal(t, "Chess", res.Game.Name)
	require.Contains(t, res.User.Games, "G1")
	assert.Equal(t, 9.0, res.User.Games["G1"].UserRating)

	games, err = f.library.ListGames(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "G1", games[0].ID)
	assert.Equal(t, "Chess", games[0].Name)

	// 覆盖而非追加
	res, err = f.library.LogGame(ctx, "alice", &domain.Game{ID: "G1", Name: "Renamed"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Chess", res.Game.Name)
	assert.Nil(t, res.User.Games["G1"])
	games, err = f.library.ListGames(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, games, 1)

	_, err = f.library.LogGame(ctx, "alice", &domain.Game{ID: "G2", Name: "Go"}, &domain.Review{UserRating: 7})
	require.NoError(t, err)

	u, err := f.library.RemoveGameEntry(ctx, "alice", "G1")
	require.NoError(t, err)
	assert.NotContains(t, u.Games, "G1")
	assert.Equal(t, domain.StatusNone, u.Games["G2"].Status)

	games, err = f.library.ListGames(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "G2", games[0].ID)

	// 删除不存在的 key 为 no-op
	u, err = f.library.RemoveGameEntry(ctx, "alice", "never-logged")
	require.NoError(t, err)
	assert.Len(t, u.Games, 1)
}

func TestLibrary_Errors(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	f.register(t, "alice")

	_, err := f.library.RemoveGameEntry(ctx, "alice", "G1")
	assert.ErrorIs(t, err, domain.ErrEmptyLibrary)

	_, err = f.library.LogGame(ctx, "", &domain.Game{ID: "G1"}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.library.LogGame(ctx, "alice", nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.library.LogGame(ctx, "alice", &domain.Game{ID: "G1"}, &domain.Review{Status: "BOGUS"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.library.LogGame(ctx, "ghost", &domain.Game{ID: "G1"}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.library.UpdateGameEntry(ctx, "ghost", &domain.Game{ID: "G1"}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.library.RemoveGameEntry(ctx, "alice", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.library.RemoveGameEntry(ctx, "ghost", "G1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.library.ListGames(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.library.ListGames(ctx, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLibrary_UpdateGameEntryDoesNotCatalog(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	f.register(t, "alice")

	u, err := f.library.UpdateGameEntry(ctx, "alice", &domain.Game{ID: "G7", Name: "Uncataloged"},
		&domain.Review{UserRating: 3, Status: domain.StatusToPlay})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusToPlay, u.Games["G7"].Status)

	g, err := f.games.FindByID(ctx, "G7")
	require.NoError(t, err)
	assert.Nil(t, g)

	games, err := f.library.ListGames(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, games, "entries without a catalog row are not listed")
}

func TestLibrary_ConcurrentWritersAllSucceed(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	f.register(t, "alice")
	_, err := f.library.UpdateGameEntry(ctx, "alice", &domain.Game{ID: "seed"}, nil)
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("G%d", i)
			if i%2 == 0 {
				_, errs[i] = f.library.LogGame(ctx, "alice", &domain.Game{ID: id, Name: id}, &domain.Review{Status: domain.StatusPlayed})
			} else {
				_, errs[i] = f.library.UpdateGameEntry(ctx, "alice", &domain.Game{ID: id}, nil)
			}
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "writer %d", i)
	}

	u, err := f.users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, u.Games, writers+1)

	_, err = f.library.RemoveGameEntry(ctx, "alice", "seed")
	require.NoError(t, err)
}

// alwaysStale 模拟永远抢不到版本号的写入
type alwaysStale struct{ domain.UserRepository }

func (alwaysStale) Update(context.Context, *domain.User, ...string) error { return domain.ErrStaleWrite }

func TestMutateUser_StopsWhenContextDone(t *testing.T) {
	f := setup(t, nil)
	f.register(t, "alice")
	stale := alwaysStale{UserRepository: f.users.users}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := mutateUser(ctx, stale, "alice", func(*domain.User) ([]string, error) {
		return []string{"bio"}, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, domain.ErrConflict)
}

func TestPosts(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	_, err := f.posts.Create(ctx, PostInput{Title: "Older"})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	p, err := f.posts.Create(ctx, PostInput{Title: "Hello"})
	require.NoError(t, err)

	list, err := f.posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Hello", list[0].Title)

	got, err := f.posts.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)

	updated, err := f.posts.Update(ctx, p.ID, PostInput{Title: "Hello again"})
	require.NoError(t, err)
	assert.Equal(t, "Hello again", updated.Title)

	deleted, err := f.posts.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, deleted.ID)

	_, err = f.posts.Get(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.posts.Update(ctx, p.ID, PostInput{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.posts.Delete(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.posts.Create(ctx, PostInput{Title: strings.Repeat("t", 256)})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.posts.Update(ctx, list[1].ID, PostInput{Title: strings.Repeat("t", 256)})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.posts.Create(ctx, PostInput{Title: strings.Repeat("题", 255)})
	assert.NoError(t, err, "limit counts characters, not bytes")
}
