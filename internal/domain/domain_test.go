package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_BeforeSave_HashesOnlyPendingPassword(t *testing.T) {
	u := &User{}
	u.SetPassword("pw123")
	require.True(t, u.PasswordChanged())

	require.NoError(t, u.BeforeSave(nil))
	assert.NotEmpty(t, u.PasswordHash)
	assert.NotEqual(t, "pw123", u.PasswordHash)
	assert.False(t, u.PasswordChanged())
	assert.True(t, u.VerifyPassword("pw123"))
	assert.False(t, u.VerifyPassword("pw124"))

	hash := u.PasswordHash
	u.Bio = "changed"
	require.NoError(t, u.BeforeSave(nil))
	assert.Equal(t, hash, u.PasswordHash, "hash must not be recomputed without a new password")
}

func TestUser_BeforeSave_PasswordTooLong(t *testing.T) {
	u := &User{}
	u.SetPassword(strings.Repeat("p", MaxPasswordBytes+1))
	err := u.BeforeSave(nil)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, u.PasswordHash)
}

func TestCheckLen(t *testing.T) {
	assert.NoError(t, CheckLen("title", strings.Repeat("题", 3), 3))
	assert.ErrorIs(t, CheckLen("title", "abcd", 3), ErrValidation)
	assert.NoError(t, CheckPassword(strings.Repeat("p", MaxPasswordBytes)))
	assert.ErrorIs(t, CheckPassword(strings.Repeat("p", MaxPasswordBytes+1)), ErrValidation)
}

func TestProfilePatch_Validate(t *testing.T) {
	assert.NoError(t, (&ProfilePatch{Username: "alice", Website: "https://a"}).Validate())
	assert.ErrorIs(t, (&ProfilePatch{Username: strings.Repeat("a", MaxUsernameLen+1)}).Validate(), ErrValidation)
}

func TestReview_Normalize(t *testing.T) {
	var nilReview *Review
	assert.NoError(t, nilReview.Normalize())

	r := &Review{UserRating: 7}
	require.NoError(t, r.Normalize())
	assert.Equal(t, StatusNone, r.Status)

	r = &Review{Status: "FINISHED"}
	assert.ErrorIs(t, r.Normalize(), ErrValidation)

	for _, s := range []PlayStatus{StatusInProgress, StatusPlayed, StatusToPlay, StatusNone} {
		assert.NoError(t, (&Review{Status: s}).Normalize())
	}
}

func TestLibrary_SetAndRemove(t *testing.T) {
	lib := Library{}
	lib.Set("G1", &Review{UserRating: 9, Status: StatusPlayed})
	lib.Set("G2", nil)
	lib.Set("G1", nil)

	assert.Len(t, lib, 2)
	assert.Nil(t, lib["G1"])
	assert.ElementsMatch(t, []string{"G1", "G2"}, lib.GameIDs())

	lib.Remove("missing")
	assert.Len(t, lib, 2)
	lib.Remove("G2")
	assert.Equal(t, []string{"G1"}, lib.GameIDs())
}

func TestStoreError(t *testing.T) {
	assert.Nil(t, NewStoreError("op", nil))

	cause := errors.New("boom")
	err := NewStoreError("find user", cause)
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "find user", se.Op)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "find user: boom", err.Error())
}
