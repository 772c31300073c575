package repositories

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"messaging-service/internal/db"
	"messaging-service/internal/models"
)

var testDB *sqlx.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("messaging"),
		postgres.WithUsername("messaging"),
		postgres.WithPassword("password"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Printf("failed to start container: %s", err)
		return
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("failed to get connection string: %v", err)
	}

	testDB, err = db.Connect(connStr)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	if err := db.Migrate(testDB); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}

	code := m.Run()

	testDB.Close()
	os.Exit(code)
}

func truncateAll(t *testing.T) {
	t.Cleanup(func() {
		_, err := testDB.ExecContext(context.Background(),
			`TRUNCATE TABLE conversations, conversation_members, messages, message_user_actions,
			 notifications, contacts, contact_requests, blocked_users, favourite_conversations,
			 user_preferences RESTART IDENTITY CASCADE`)
		require.NoError(t, err)
	})
}

func Test_FindOrCreateIndividual_ReusesConversation(t *testing.T) {
	truncateAll(t)
	repo := NewConversationRepo(testDB)
	ctx := context.Background()

	first, created, err := repo.FindOrCreateIndividual(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, created)

	// Member order must not matter.
	second, created, err := repo.FindOrCreateIndividual(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func Test_FindOrCreateIndividual_ConcurrentSenders(t *testing.T) {
	truncateAll(t)
	repo := NewConversationRepo(testDB)
	ctx := context.Background()

	const racers = 8
	ids := make([]int, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, _, err := repo.FindOrCreateIndividual(ctx, 5, 6)
			assert.NoError(t, err)
			ids[i] = conv.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func Test_CreateGroupConversation_Members(t *testing.T) {
	truncateAll(t)
	repo := NewConversationRepo(testDB)
	ctx := context.Background()

	name := "crew"
	conv, err := repo.Create(ctx, models.ConversationTypeGroup, []int{1, 2, 3}, &name, nil, nil)
	require.NoError(t, err)

	memberIDs, err := repo.MemberIDs(ctx, conv.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3}, memberIDs)

	member, err := repo.IsMember(ctx, conv.ID, 2)
	require.NoError(t, err)
	assert.True(t, member)
	member, err = repo.IsMember(ctx, conv.ID, 9)
	require.NoError(t, err)
	assert.False(t, member)
}

func Test_ListForUser_Ordering(t *testing.T) {
	truncateAll(t)
	convRepo := NewConversationRepo(testDB)
	msgRepo := NewMessageRepo(testDB)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	older, _, err := convRepo.FindOrCreateIndividual(ctx, 1, 2)
	require.NoError(t, err)
	newer, _, err := convRepo.FindOrCreateIndividual(ctx, 1, 3)
	require.NoError(t, err)
	empty, _, err := convRepo.FindOrCreateIndividual(ctx, 1, 4)
	require.NoError(t, err)

	_, err = msgRepo.Create(ctx, older.ID, 2, "", "old", "old", base.Add(-time.Hour))
	require.NoError(t, err)
	_, err = msgRepo.Create(ctx, newer.ID, 3, "", "new", "new", base)
	require.NoError(t, err)

	list, err := convRepo.ListForUser(ctx, ConversationQuery{UserID: 1})
	require.NoError(t, err)
	require.Len(t, list, 3)

	// Messaging conversations by newest message first, empty ones last.
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
	assert.Equal(t, empty.ID, list[2].ID)
	assert.Nil(t, list[2].LastMessageAt)
}

func Test_ListForUser_DeletedMessagesMoveConversationDown(t *testing.T) {
	truncateAll(t)
	convRepo := NewConversationRepo(testDB)
	msgRepo := NewMessageRepo(testDB)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	loud, _, err := convRepo.FindOrCreateIndividual(ctx, 1, 2)
	require.NoError(t, err)
	quiet, _, err := convRepo.FindOrCreateIndividual(ctx, 1, 3)
	require.NoError(t, err)

	hidden, err := msgRepo.Create(ctx, loud.ID, 2, "", "latest", "latest", base)
	require.NoError(t, err)
	_, err = msgRepo.Create(ctx, quiet.ID, 3, "", "earlier", "earlier", base.Add(-time.Hour))
	require.NoError(t, err)

	_, err = msgRepo.AddAction(ctx, hidden.ID, 1, models.ActionDeleted, base)
	require.NoError(t, err)

	list, err := convRepo.ListForUser(ctx, ConversationQuery{UserID: 1})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, quiet.ID, list[0].ID)
	assert.Equal(t, loud.ID, list[1].ID)
	assert.Nil(t, list[1].LastMessageAt)
}

func Test_Favourites(t *testing.T) {
	truncateAll(t)
	repo := NewConversationRepo(testDB)
	ctx := context.Background()

	conv, _, err := repo.FindOrCreateIndividual(ctx, 1, 2)
	require.NoError(t, err)

	require.NoError(t, repo.SetFavourite(ctx, conv.ID, 1))
	// Setting twice must not fail.
	require.NoError(t, repo.SetFavourite(ctx, conv.ID, 1))

	ids, err := repo.FavouriteIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{conv.ID}, ids)

	list, err := repo.ListForUser(ctx, ConversationQuery{UserID: 1, FavouritesOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, repo.UnsetFavourite(ctx, conv.ID, 1))
	ids, err = repo.FavouriteIDs(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func Test_AddAction_Idempotent(t *testing.T) {
	truncateAll(t)
	convRepo := NewConversationRepo(testDB)
	msgRepo := NewMessageRepo(testDB)
	ctx := context.Background()
	now := time.Now().UTC()

	conv, _, err := convRepo.FindOrCreateIndividual(ctx, 1, 2)
	require.NoError(t, err)
	msg, err := msgRepo.Create(ctx, conv.ID, 1, "", "hi", "hi", now)
	require.NoError(t, err)

	inserted, err := msgRepo.AddAction(ctx, msg.ID, 2, models.ActionRead, now)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = msgRepo.AddAction(ctx, msg.ID, 2, models.ActionRead, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, inserted)
}

func Test_UnreadCount_IgnoresOwnAndActionedMessages(t *testing.T) {
	truncateAll(t)
	convRepo := NewConversationRepo(testDB)
	msgRepo := NewMessageRepo(testDB)
	ctx := context.Background()
	now := time.Now().UTC()

	conv, _, err := convRepo.FindOrCreateIndividual(ctx, 1, 2)
	require.NoError(t, err)

	_, err = msgRepo.Create(ctx, conv.ID, 1, "", "mine", "mine", now)
	require.NoError(t, err)
	first, err := msgRepo.Create(ctx, conv.ID, 2, "", "one", "one", now)
	require.NoError(t, err)
	_, err = msgRepo.Create(ctx, conv.ID, 2, "", "two", "two", now)
	require.NoError(t, err)

	count, err := msgRepo.UnreadCount(ctx, conv.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = msgRepo.AddAction(ctx, first.ID, 1, models.ActionRead, now)
	require.NoError(t, err)
	count, err = msgRepo.UnreadCount(ctx, conv.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// A message hidden for the user counts as handled too.
	second, err := msgRepo.Create(ctx, conv.ID, 2, "", "three", "three", now)
	require.NoError(t, err)
	_, err = msgRepo.AddAction(ctx, second.ID, 1, models.ActionDeleted, now)
	require.NoError(t, err)
	count, err = msgRepo.UnreadCount(ctx, conv.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func Test_MarkAllConversationRead(t *testing.T) {
	truncateAll(t)
	convRepo := NewConversationRepo(testDB)
	msgRepo := NewMessageRepo(testDB)
	ctx := context.Background()
	now := time.Now().UTC()

	conv, _, err := convRepo.FindOrCreateIndividual(ctx, 1, 2)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = msgRepo.Create(ctx, conv.ID, 2, "", "m", "m", now)
		require.NoError(t, err)
	}

	require.NoError(t, msgRepo.MarkAllConversationRead(ctx, conv.ID, 1, now))

	count, err := msgRepo.UnreadCount(ctx, conv.ID, 1)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Re-running must not violate the unique action constraint.
	require.NoError(t, msgRepo.MarkAllConversationRead(ctx, conv.ID, 1, now))
}

func Test_DeleteAllForUser_HidesOnlyForThatUser(t *testing.T) {
	truncateAll(t)
	convRepo := NewConversationRepo(testDB)
	msgRepo := NewMessageRepo(testDB)
	ctx := context.Background()
	now := time.Now().UTC()

	conv, _, err := convRepo.FindOrCreateIndividual(ctx, 1, 2)
	require.NoError(t, err)
	_, err = msgRepo.Create(ctx, conv.ID, 1, "", "a", "a", now)
	require.NoError(t, err)
	_, err = msgRepo.Create(ctx, conv.ID, 2, "", "b", "b", now)
	require.NoError(t, err)

	require.NoError(t, msgRepo.DeleteAllForUser(ctx, conv.ID, 1, now))

	mine, err := msgRepo.VisibleMessages(ctx, conv.ID, 1, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, mine)

	theirs, err := msgRepo.VisibleMessages(ctx, conv.ID, 2, 0, 0)
	require.NoError(t, err)
	assert.Len(t, theirs, 2)
}

func Test_RecentVisibleMessages_NewestWindowInThreadOrder(t *testing.T) {
	truncateAll(t)
	convRepo := NewConversationRepo(testDB)
	msgRepo := NewMessageRepo(testDB)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	conv, _, err := convRepo.FindOrCreateIndividual(ctx, 1, 2)
	require.NoError(t, err)
	var ids []int
	for i := 0; i < 5; i++ {
		msg, err := msgRepo.Create(ctx, conv.ID, 2, "", "m", "m", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		ids = append(ids, msg.ID)
	}

	recent, err := msgRepo.RecentVisibleMessages(ctx, conv.ID, 1, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, ids[2], recent[0].ID)
	assert.Equal(t, ids[4], recent[2].ID)

	// A deleted message drops out of the window and an older one slides in.
	_, err = msgRepo.AddAction(ctx, ids[4], 1, models.ActionDeleted, time.Now().UTC())
	require.NoError(t, err)

	recent, err = msgRepo.RecentVisibleMessages(ctx, conv.ID, 1, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, ids[1], recent[0].ID)
	assert.Equal(t, ids[3], recent[2].ID)
}

func Test_UnreadConversationsCount(t *testing.T) {
	truncateAll(t)
	convRepo := NewConversationRepo(testDB)
	msgRepo := NewMessageRepo(testDB)
	ctx := context.Background()
	now := time.Now().UTC()

	first, _, err := convRepo.FindOrCreateIndividual(ctx, 1, 2)
	require.NoError(t, err)
	second, _, err := convRepo.FindOrCreateIndividual(ctx, 1, 3)
	require.NoError(t, err)
	_, _, err = convRepo.FindOrCreateIndividual(ctx, 1, 4)
	require.NoError(t, err)

	_, err = msgRepo.Create(ctx, first.ID, 2, "", "a", "a", now)
	require.NoError(t, err)
	_, err = msgRepo.Create(ctx, second.ID, 3, "", "b", "b", now)
	require.NoError(t, err)

	count, err := msgRepo.UnreadConversationsCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, msgRepo.MarkAllConversationRead(ctx, second.ID, 1, now))
	count, err = msgRepo.UnreadConversationsCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func Test_Search_MatchesBodyCaseInsensitive(t *testing.T) {
	truncateAll(t)
	convRepo := NewConversationRepo(testDB)
	msgRepo := NewMessageRepo(testDB)
	ctx := context.Background()
	now := time.Now().UTC()

	conv, _, err := convRepo.FindOrCreateIndividual(ctx, 1, 2)
	require.NoError(t, err)
	hit, err := msgRepo.Create(ctx, conv.ID, 2, "", "Lunch at noon?", "Lunch at noon?", now)
	require.NoError(t, err)
	_, err = msgRepo.Create(ctx, conv.ID, 2, "", "unrelated", "unrelated", now)
	require.NoError(t, err)

	found, err := msgRepo.Search(ctx, 1, "lunch", 0, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, hit.ID, found[0].ID)

	// Hidden messages never match.
	_, err = msgRepo.AddAction(ctx, hit.ID, 1, models.ActionDeleted, now)
	require.NoError(t, err)
	found, err = msgRepo.Search(ctx, 1, "lunch", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func Test_ContactRequestLifecycle(t *testing.T) {
	truncateAll(t)
	repo := NewContactRepo(testDB)
	ctx := context.Background()

	req, err := repo.CreateRequest(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, req.UserID)

	// Repeating the request returns the pending row instead of failing.
	again, err := repo.CreateRequest(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, req.ID, again.ID)

	incoming, err := repo.ListIncomingRequests(ctx, 2)
	require.NoError(t, err)
	require.Len(t, incoming, 1)

	require.NoError(t, repo.ConfirmRequest(ctx, 1, 2))

	both, err := repo.AreContacts(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, both)

	incoming, err = repo.ListIncomingRequests(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, incoming)
}

func Test_ListIncomingRequests_ExcludesBlockedRequesters(t *testing.T) {
	truncateAll(t)
	repo := NewContactRepo(testDB)
	ctx := context.Background()

	_, err := repo.CreateRequest(ctx, 1, 3)
	require.NoError(t, err)
	_, err = repo.CreateRequest(ctx, 2, 3)
	require.NoError(t, err)
	require.NoError(t, repo.Block(ctx, 3, 1))

	incoming, err := repo.ListIncomingRequests(ctx, 3)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, 2, incoming[0].UserID)
}

func Test_BlockIsDirectional(t *testing.T) {
	truncateAll(t)
	repo := NewContactRepo(testDB)
	ctx := context.Background()

	require.NoError(t, repo.Block(ctx, 1, 2))
	// Blocking twice is a no-op.
	require.NoError(t, repo.Block(ctx, 1, 2))

	blocked, err := repo.IsBlocked(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, blocked)

	reverse, err := repo.IsBlocked(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, reverse)

	require.NoError(t, repo.Unblock(ctx, 1, 2))
	blocked, err = repo.IsBlocked(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func Test_NotificationMarkReadKeepsFirstTimestamp(t *testing.T) {
	truncateAll(t)
	repo := NewNotificationRepo(testDB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	n, err := repo.Create(ctx, models.Notification{
		SenderID:    1,
		RecipientID: 2,
		Component:   "messaging",
		EventName:   "instantmessage",
		Subject:     "hi",
		CreatedAt:   now,
	})
	require.NoError(t, err)

	require.NoError(t, repo.MarkRead(ctx, n.ID, now))
	require.NoError(t, repo.MarkRead(ctx, n.ID, now.Add(time.Hour)))

	stored, err := repo.Get(ctx, n.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReadAt)
	assert.WithinDuration(t, now, *stored.ReadAt, time.Second)
}

func Test_NotificationMarkReadUnknownID(t *testing.T) {
	truncateAll(t)
	repo := NewNotificationRepo(testDB)

	err := repo.MarkRead(context.Background(), 999, time.Now())
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func Test_PreferenceUpsert(t *testing.T) {
	truncateAll(t)
	repo := NewPreferenceRepo(testDB)
	ctx := context.Background()

	_, found, err := repo.Get(ctx, 1, "message_privacy")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Set(ctx, 1, "message_privacy", "contacts"))
	require.NoError(t, repo.Set(ctx, 1, "message_privacy", "site"))

	value, found, err := repo.Get(ctx, 1, "message_privacy")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "site", value)

	all, err := repo.ListForUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
