package playlist

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlaylistAccessInfo(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewServer(mock, nil, nil)

	mock.ExpectQuery("SELECT owner_id, is_public, edit_mode").
		WithArgs("pl-001").
		WillReturnRows(pgxmock.NewRows([]string{"owner_id", "is_public", "edit_mode"}).
			AddRow("owner-123", false, "invited"))

	ownerID, isPublic, editMode, err := s.getPlaylistAccessInfo(context.Background(), "pl-001")
	assert.NoError(t, err)
	assert.Equal(t, "owner-123", ownerID)
	assert.False(t, isPublic)
	assert.Equal(t, "invited", editMode)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserIsMember(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewServer(mock, nil, nil)

	t.Run("anonymous is never a member", func(t *testing.T) {
		member, err := s.userIsMember(context.Background(), "pl-001", "")
		assert.NoError(t, err)
		assert.False(t, member)
	})

	t.Run("present row", func(t *testing.T) {
		mock.ExpectQuery("SELECT user_id.*FROM playlist_members").
			WithArgs("pl-001", "user-1").
			WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow("user-1"))

		member, err := s.userIsMember(context.Background(), "pl-001", "user-1")
		assert.NoError(t, err)
		assert.True(t, member)
	})

	t.Run("no row", func(t *testing.T) {
		mock.ExpectQuery("SELECT user_id.*FROM playlist_members").
			WithArgs("pl-001", "stranger").
			WillReturnRows(pgxmock.NewRows([]string{"user_id"}))

		member, err := s.userIsMember(context.Background(), "pl-001", "stranger")
		assert.NoError(t, err)
		assert.False(t, member)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCanEdit(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		ownerID  string
		editMode string
		member   bool
		want     bool
	}{
		{"anonymous", "", "owner", "everyone", false, false},
		{"owner always", "owner", "owner", "invited", false, true},
		{"everyone mode lets visitors", "visitor", "owner", "everyone", false, true},
		{"invited mode blocks outsiders", "visitor", "owner", "invited", false, false},
		{"invited mode lets members", "member", "owner", "invited", true, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, canEdit(tc.userID, tc.ownerID, tc.editMode, tc.member))
		})
	}
}
