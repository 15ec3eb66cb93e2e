package service

import (
	"testing"

	"github.com/mediamorph/mediamorph-backend/internal/apperr"
	"github.com/mediamorph/mediamorph-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserServiceFixture() (*UserService, *fakeUserStore, *fakeLedger, *fakeTxnStore) {
	users := newFakeUserStore()
	txns := newFakeTxnStore()
	ledger := newFakeLedger(users, txns)
	svc := NewUserService(users, ledger, newFakeImageStore(), newFakeVideoStore(), txns)
	return svc, users, ledger, txns
}

func TestCreateOrGetUser_GrantsFreeTierThroughLedger(t *testing.T) {
	svc, _, ledger, _ := newUserServiceFixture()

	user, err := svc.CreateOrGetUser(models.UserIdentity{
		ProviderID: "clerk_abc",
		Email:      "jane@example.com",
		FirstName:  "Jane",
	})
	require.NoError(t, err)

	assert.Equal(t, models.FreeTierCredits, user.Credits)
	assert.Equal(t, models.FreeTierCredits, ledger.ledgerSum(user.ID))

	history, err := svc.GetCreditHistory(user.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.FreeTierCredits, history[0].Amount)
	assert.Equal(t, models.CreditLogPurchase, history[0].Type)
}

func TestCreateOrGetUser_IsIdempotent(t *testing.T) {
	svc, _, ledger, _ := newUserServiceFixture()

	identity := models.UserIdentity{ProviderID: "clerk_abc", Email: "jane@example.com"}

	first, err := svc.CreateOrGetUser(identity)
	require.NoError(t, err)

	second, err := svc.CreateOrGetUser(identity)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.FreeTierCredits, second.Credits)
	// Still exactly one welcome grant.
	assert.Equal(t, models.FreeTierCredits, ledger.ledgerSum(first.ID))
}

func TestCreateOrGetUser_RefreshesChangedProfile(t *testing.T) {
	svc, users, _, _ := newUserServiceFixture()

	_, err := svc.CreateOrGetUser(models.UserIdentity{ProviderID: "clerk_abc", Email: "old@example.com"})
	require.NoError(t, err)

	user, err := svc.CreateOrGetUser(models.UserIdentity{
		ProviderID: "clerk_abc",
		Email:      "new@example.com",
		Avatar:     "https://img.example.com/jane.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, "https://img.example.com/jane.png", user.Avatar)

	stored, err := users.GetByProviderID("clerk_abc")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", stored.Email)
}

func TestCreateOrGetUser_DuplicateKeyRetriesAsLookup(t *testing.T) {
	svc, users, _, _ := newUserServiceFixture()

	// Simulate losing the insert race: the row exists but the initial
	// lookup misses it, so Create hits the unique index and the service
	// retries as a lookup.
	existing := &models.User{ProviderID: "clerk_race", Email: "first@example.com", Credits: 10}
	require.NoError(t, users.Create(existing))
	users.missLookups = 1

	user, err := svc.CreateOrGetUser(models.UserIdentity{ProviderID: "clerk_race", Email: "second@example.com"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)
	assert.Equal(t, "first@example.com", user.Email)
}

func TestHasEnoughCredits(t *testing.T) {
	svc, users, _, _ := newUserServiceFixture()

	user := &models.User{ProviderID: "p1", Credits: 5}
	require.NoError(t, users.Create(user))

	tests := []struct {
		name     string
		required int
		want     bool
	}{
		{"below balance", 4, true},
		{"exact balance", 5, true},
		{"above balance", 6, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.HasEnoughCredits(user.ID, tt.required)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasEnoughCredits_MissingUser(t *testing.T) {
	svc, _, _, _ := newUserServiceFixture()

	got, err := svc.HasEnoughCredits(999, 1)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestUseCredits_InsufficientBalance(t *testing.T) {
	svc, users, ledger, _ := newUserServiceFixture()

	user := &models.User{ProviderID: "p1", Credits: 3}
	require.NoError(t, users.Create(user))

	_, _, err := svc.UseCredits(user.ID, 5, "AI image generation", nil)
	require.Error(t, err)
	assert.True(t, apperr.IsInsufficientCredits(err))

	appErr := apperr.As(err)
	assert.Equal(t, 3, appErr.Balance)
	assert.Equal(t, 5, appErr.Required)

	// Rejected debit writes nothing.
	assert.Equal(t, 0, ledger.ledgerSum(user.ID))
	stored, _ := users.GetByID(user.ID)
	assert.Equal(t, 3, stored.Credits)
}

func TestCreditLifecycle_SignupUseThenPurchase(t *testing.T) {
	svc, _, ledger, txns := newUserServiceFixture()

	user, err := svc.CreateOrGetUser(models.UserIdentity{ProviderID: "clerk_abc", Email: "jane@example.com"})
	require.NoError(t, err)
	require.Equal(t, 10, user.Credits)

	user, _, err = svc.UseCredits(user.ID, 3, "Generative object replace", map[string]interface{}{"image_id": 1})
	require.NoError(t, err)
	assert.Equal(t, 7, user.Credits)

	txnSvc := NewTransactionService(txns, ledger)
	txn, err := txnSvc.CreateTransaction(user.ID, 4900, "usd", "Credit purchase - Professional", "cs_test_1", nil)
	require.NoError(t, err)

	txn, user, err = txnSvc.ProcessSuccessfulPayment(txn.ID, 1000)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, txn.Status)
	assert.Equal(t, 1007, user.Credits)

	// The ledger reconciles with the stored balance at every step.
	assert.Equal(t, user.Credits, ledger.ledgerSum(user.ID))
}

func TestGetDashboardData(t *testing.T) {
	svc, users, ledger, txns := newUserServiceFixture()

	user, err := svc.CreateOrGetUser(models.UserIdentity{ProviderID: "clerk_abc", Email: "jane@example.com"})
	require.NoError(t, err)

	images := newFakeImageStore()
	videos := newFakeVideoStore()
	svc = NewUserService(users, ledger, images, videos, txns)

	for i := 0; i < 7; i++ {
		require.NoError(t, images.Create(&models.Image{UserID: user.ID, Type: models.ImageUploaded}))
	}
	require.NoError(t, videos.Create(&models.Video{UserID: user.ID}))

	dashboard, err := svc.GetDashboardData(user)
	require.NoError(t, err)

	assert.Equal(t, int64(7), dashboard.Stats.TotalImages)
	assert.Equal(t, int64(1), dashboard.Stats.TotalVideos)
	assert.Len(t, dashboard.RecentActivity.Images, 5)
	assert.Len(t, dashboard.RecentActivity.Videos, 1)
	assert.Equal(t, user.Credits, dashboard.User.Credits)
}

func TestGetUserTransactionStats(t *testing.T) {
	_, users, ledger, txns := newUserServiceFixture()

	user := &models.User{ProviderID: "p1"}
	require.NoError(t, users.Create(user))

	txnSvc := NewTransactionService(txns, ledger)
	seed := []struct {
		amount int64
		status string
	}{
		{4900, models.TransactionStatusCompleted},
		{9900, models.TransactionStatusCompleted},
		{4900, models.TransactionStatusPending},
		{4900, models.TransactionStatusFailed},
	}
	for i, s := range seed {
		txn, err := txnSvc.CreateTransaction(user.ID, s.amount, "usd", "Credit purchase", sessionID(i), nil)
		require.NoError(t, err)
		require.NoError(t, txns.UpdateStatus(txn.ID, s.status))
	}

	stats, err := txnSvc.GetUserTransactionStats(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(14800), stats.TotalSpent)
	assert.Equal(t, 2, stats.CompletedTransactions)
	assert.Equal(t, 1, stats.PendingTransactions)
	assert.Equal(t, 4, stats.TotalTransactions)
}

func sessionID(i int) string {
	return "cs_test_" + string(rune('a'+i))
}
