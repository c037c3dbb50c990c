package jsonstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venkatnanaji21/Life-line-blood/internal/models"
)

func newTestStore(t *testing.T) (*JSONStore, string) {
	t.Helper()

	fileName := filepath.Join(t.TempDir(), "store_test.json")
	store, err := New(fileName)
	require.NoError(t, err)
	require.NotNil(t, store)

	return store, fileName
}

func testUser(phone string) *models.User {
	return &models.User{
		ID:         "user-" + phone,
		Name:       "Asha",
		Phone:      phone,
		BloodGroup: models.BloodGroupOPositive,
		Role:       models.RoleDonor,
		CreatedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func testRequest(id string) *models.Request {
	return &models.Request{
		ID:          id,
		SeekerName:  "Ravi",
		SeekerPhone: "9876543210",
		BloodGroup:  models.BloodGroupBNegative,
		Hospital:    "City Hospital",
		Units:       2,
		Location:    "Current Location",
		Status:      models.RequestStatusPending,
		Timestamp:   time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC),
	}
}

func TestNewInitializesEmptyCollections(t *testing.T) {
	store, fileName := newTestStore(t)

	assert.NotNil(t, store.Cache.Users)
	assert.NotNil(t, store.Cache.Requests)
	assert.Nil(t, store.Cache.CurrentUser)

	// The init must be idempotent: a second open sees the same empty layout.
	again, err := New(fileName)
	require.NoError(t, err)
	assert.Empty(t, again.Cache.Users)
	assert.Empty(t, again.Cache.Requests)
}

func TestUserLifecycle(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	usr := testUser("1112223333")
	require.NoError(t, store.CreateUser(ctx, usr))

	found, ok, err := store.FindUserByPhone(ctx, "1112223333")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, *usr, *found)

	found, ok, err = store.FindUserByID(ctx, usr.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, usr.Name, found.Name)

	_, ok, err = store.FindUserByPhone(ctx, "0000000000")
	require.NoError(t, err)
	assert.False(t, ok)

	usr.Role = models.RoleSeeker
	matched, err := store.UpdateUser(ctx, usr)
	require.NoError(t, err)
	assert.True(t, matched)

	found, ok, err = store.FindUserByID(ctx, usr.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.RoleSeeker, found.Role)

	matched, err = store.UpdateUser(ctx, testUser("4445556666"))
	require.NoError(t, err)
	assert.False(t, matched)

	count, err := store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestFindReturnsCopy(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	usr := testUser("1112223333")
	require.NoError(t, store.CreateUser(ctx, usr))

	found, ok, err := store.FindUserByPhone(ctx, usr.Phone)
	require.NoError(t, err)
	require.True(t, ok)

	found.Name = "mutated"

	again, ok, err := store.FindUserByPhone(ctx, usr.Phone)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Asha", again.Name)
}

func TestSession(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.GetSession(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	usr := testUser("1112223333")
	require.NoError(t, store.SaveSession(ctx, usr))

	sessionUser, ok, err := store.GetSession(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, usr.ID, sessionUser.ID)

	require.NoError(t, store.ClearSession(ctx))

	_, ok, err = store.GetSession(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRequestLifecycle(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first := testRequest("REQ-1")
	second := testRequest("REQ-2")
	require.NoError(t, store.InsertRequest(ctx, first))
	require.NoError(t, store.InsertRequest(ctx, second))

	listed, err := store.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "REQ-1", listed[0].ID)
	assert.Equal(t, "REQ-2", listed[1].ID)

	found, ok, err := store.FindRequestByID(ctx, "REQ-2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.RequestStatusPending, found.Status)

	found.Status = models.RequestStatusAccepted
	found.DonorID = "donor-1"
	matched, err := store.UpdateRequest(ctx, found)
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = store.UpdateRequest(ctx, testRequest("REQ-UNKNOWN"))
	require.NoError(t, err)
	assert.False(t, matched)

	count, err := store.CountRequests(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestCountDonorsByBloodGroup(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	donorAPlus := testUser("1")
	donorAPlus.BloodGroup = models.BloodGroupAPositive

	donorBPlus := testUser("2")
	donorBPlus.BloodGroup = models.BloodGroupBPositive

	seekerAPlus := testUser("3")
	seekerAPlus.BloodGroup = models.BloodGroupAPositive
	seekerAPlus.Role = models.RoleSeeker

	for _, usr := range []*models.User{donorAPlus, donorBPlus, seekerAPlus} {
		require.NoError(t, store.CreateUser(ctx, usr))
	}

	count, err := store.CountDonorsByBloodGroup(ctx, models.BloodGroupAPositive)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = store.CountDonorsByBloodGroup(ctx, models.BloodGroupONegative)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestEveryMutationIsPersisted(t *testing.T) {
	store, fileName := newTestStore(t)
	ctx := context.Background()

	usr := testUser("1112223333")
	require.NoError(t, store.CreateUser(ctx, usr))
	require.NoError(t, store.SaveSession(ctx, usr))
	require.NoError(t, store.InsertRequest(ctx, testRequest("REQ-1")))

	// Reopen without Close: the data must already be on disk.
	reopened, err := New(fileName)
	require.NoError(t, err)

	require.Len(t, reopened.Cache.Users, 1)
	assert.Equal(t, usr.Phone, reopened.Cache.Users[0].Phone)
	require.Len(t, reopened.Cache.Requests, 1)
	require.NotNil(t, reopened.Cache.CurrentUser)
	assert.Equal(t, usr.ID, reopened.Cache.CurrentUser.ID)
}

func TestCloseFlushes(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "store_test.json")
	store, err := New(fileName)
	require.NoError(t, err)

	require.NoError(t, store.CreateUser(context.Background(), testUser("1")))
	require.NoError(t, store.Close())

	data, err := os.ReadFile(fileName)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"users"`)
}
