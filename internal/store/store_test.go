package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spynners/api/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestInMemoryStoreSharedAcrossGoroutines(t *testing.T) {
	// The in-memory database must be visible to every pooled connection,
	// not just the one that applied the schema.
	st := newTestStore(t)
	ctx := context.Background()

	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func(n int) {
			errs <- st.CreateUser(ctx, &model.User{
				ID:        string(rune('a' + n)),
				Email:     string(rune('a'+n)) + "@spynners.com",
				FullName:  "DJ",
				UserType:  model.UserTypeDJ,
				CreatedAt: time.Now(),
			})
		}(i)
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, <-errs)
	}

	got, err := st.GetUserByEmail(ctx, "a@spynners.com")
	require.NoError(t, err)
	require.Equal(t, "a", got.ID)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	user := &model.User{
		ID:           "u1",
		Email:        "dj@spynners.com",
		PasswordHash: "hash",
		FullName:     "DJ One",
		UserType:     model.UserTypeDJ,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, st.CreateUser(ctx, user))

	dup := *user
	dup.ID = "u2"
	require.ErrorIs(t, st.CreateUser(ctx, &dup), ErrDuplicateEmail)
}

func TestGetUserByEmail(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateUser(ctx, &model.User{
		ID:           "u1",
		Email:        "dj@spynners.com",
		PasswordHash: "hash",
		FullName:     "DJ One",
		UserType:     model.UserTypeDJProducer,
		IsVIP:        true,
		CreatedAt:    time.Now(),
	}))

	got, err := st.GetUserByEmail(ctx, "dj@spynners.com")
	require.NoError(t, err)
	require.Equal(t, "u1", got.ID)
	require.Equal(t, model.UserTypeDJProducer, got.UserType)
	require.True(t, got.IsVIP)

	_, err = st.GetUserByEmail(ctx, "nobody@spynners.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFindTrackByIdentityCaseInsensitive(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	bpm := 128
	require.NoError(t, st.CreateTrack(ctx, &model.Track{
		ID:         "t1",
		Title:      "Midnight Drive",
		Artist:     "Nova",
		Genre:      "house",
		UploadedBy: "producer-1",
		BPM:        &bpm,
		Status:     model.TrackStatusApproved,
		CreatedAt:  time.Now(),
	}))

	got, err := st.FindTrackByIdentity(ctx, "  midnight drive ", "NOVA")
	require.NoError(t, err)
	require.Equal(t, "t1", got.ID)
	require.Equal(t, "producer-1", got.UploadedBy)
	require.NotNil(t, got.BPM)
	require.Equal(t, 128, *got.BPM)

	_, err = st.FindTrackByIdentity(ctx, "Unknown", "Nobody")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListTracksFiltersAndOrders(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	for i, tr := range []struct {
		id, title, genre string
	}{
		{"t1", "First", "house"},
		{"t2", "Second", "techno"},
		{"t3", "Third", "house"},
	} {
		require.NoError(t, st.CreateTrack(ctx, &model.Track{
			ID:        tr.id,
			Title:     tr.title,
			Artist:    "Nova",
			Genre:     tr.genre,
			Status:    model.TrackStatusApproved,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	house, err := st.ListTracks(ctx, "house", 10)
	require.NoError(t, err)
	require.Len(t, house, 2)
	require.Equal(t, "Third", house[0].Title) // newest first

	all, err := st.ListTracks(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestIncrementPlayCount(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateTrack(ctx, &model.Track{
		ID: "t1", Title: "First", Artist: "Nova", Genre: "house",
		Status: model.TrackStatusApproved, CreatedAt: time.Now(),
	}))

	require.NoError(t, st.IncrementPlayCount(ctx, "t1"))
	require.NoError(t, st.IncrementPlayCount(ctx, "t1"))

	got, err := st.FindTrackByIdentity(ctx, "First", "Nova")
	require.NoError(t, err)
	require.Equal(t, 2, got.PlayCount)

	require.ErrorIs(t, st.IncrementPlayCount(ctx, "missing"), ErrNotFound)
}

func TestConversationBothDirections(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	msgs := []model.Message{
		{ID: "m1", SenderID: "a", SenderName: "A", RecipientID: "b", Type: model.MessageTypeText, Content: "hey", Timestamp: base},
		{ID: "m2", SenderID: "b", SenderName: "B", RecipientID: "a", Type: model.MessageTypeText, Content: "yo", Timestamp: base.Add(time.Second)},
		{ID: "m3", SenderID: "a", SenderName: "A", RecipientID: "c", Type: model.MessageTypeText, Content: "other thread", Timestamp: base.Add(2 * time.Second)},
	}
	for i := range msgs {
		require.NoError(t, st.CreateMessage(ctx, &msgs[i]))
	}

	conv, err := st.ListMessages(ctx, "a", "b", 100)
	require.NoError(t, err)
	require.Len(t, conv, 2)
	require.Equal(t, "m1", conv[0].ID) // oldest first
	require.Equal(t, "m2", conv[1].ID)
}

func TestPlaylistAddTrackIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreatePlaylist(ctx, &model.Playlist{
		ID: "p1", Name: "Warmup", UserID: "u1", CreatedAt: time.Now(),
	}))

	require.NoError(t, st.AddTrackToPlaylist(ctx, "p1", "t1"))
	require.NoError(t, st.AddTrackToPlaylist(ctx, "p1", "t1"))
	require.NoError(t, st.AddTrackToPlaylist(ctx, "p1", "t2"))

	lists, err := st.ListPlaylists(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lists, 1)
	require.Equal(t, []string{"t1", "t2"}, lists[0].TrackIDs)

	require.ErrorIs(t, st.AddTrackToPlaylist(ctx, "missing", "t1"), ErrNotFound)
}
