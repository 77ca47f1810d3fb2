package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenpro/account-server/internal/model"
	"github.com/screenpro/account-server/internal/testutil"
)

func TestDeviceRepository_ActivateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewDeviceRepository(db)
	user := testutil.TestUser(t, db)

	device := &model.Device{
		UserID:       user.ID,
		HardwareUUID: "hw-uuid-1",
		DeviceName:   "MacBook Pro",
	}
	require.NoError(t, repo.Activate(device))

	active, err := repo.GetActiveByUserID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "hw-uuid-1", active.HardwareUUID)
	assert.False(t, active.ActivatedAt.IsZero())
}

// One active device per license: a new activation supersedes the old
// one.
func TestDeviceRepository_Activate_SupersedesPrevious(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewDeviceRepository(db)
	user := testutil.TestUser(t, db)

	first := &model.Device{UserID: user.ID, HardwareUUID: "hw-1", DeviceName: "Old Mac"}
	require.NoError(t, repo.Activate(first))

	second := &model.Device{UserID: user.ID, HardwareUUID: "hw-2", DeviceName: "New Mac"}
	require.NoError(t, repo.Activate(second))

	active, err := repo.GetActiveByUserID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "hw-2", active.HardwareUUID)

	// Old row still exists, deactivated
	var count int64
	db.Model(&model.Device{}).Where("user_id = ? AND deactivated_at IS NOT NULL", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDeviceRepository_GetActive_None(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewDeviceRepository(db)
	user := testutil.TestUser(t, db)

	active, err := repo.GetActiveByUserID(user.ID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestDeviceRepository_Deactivate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewDeviceRepository(db)
	user := testutil.TestUser(t, db)

	device := &model.Device{UserID: user.ID, HardwareUUID: "hw-1"}
	require.NoError(t, repo.Activate(device))

	require.NoError(t, repo.Deactivate(user.ID))

	active, err := repo.GetActiveByUserID(user.ID)
	require.NoError(t, err)
	assert.Nil(t, active)
}
