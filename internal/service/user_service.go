package service

import (
	"errors"

	"github.com/mediamorph/mediamorph-backend/internal/apperr"
	"github.com/mediamorph/mediamorph-backend/internal/models"
	"gorm.io/gorm"
)

type UserService struct {
	userRepo UserStore
	ledger   CreditLedger
	images   ImageStore
	videos   VideoStore
	txns     TransactionStore
}

func NewUserService(userRepo UserStore, ledger CreditLedger, images ImageStore, videos VideoStore, txns TransactionStore) *UserService {
	return &UserService{
		userRepo: userRepo,
		ledger:   ledger,
		images:   images,
		videos:   videos,
		txns:     txns,
	}
}

// CreateOrGetUser is the lazy signup path: every authenticated request may
// call it, so it must be idempotent per provider ID. Concurrent first
// requests race on the unique index; the loser retries as a lookup. The
// free-tier grant goes through the ledger so the reconciliation invariant
// holds from the first row.
func (s *UserService) CreateOrGetUser(identity models.UserIdentity) (*models.User, error) {
	user, err := s.userRepo.GetByProviderID(identity.ProviderID)
	if err == nil {
		return s.refreshProfile(user, identity)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	newUser := &models.User{
		ProviderID: identity.ProviderID,
		Email:      identity.Email,
		FirstName:  identity.FirstName,
		LastName:   identity.LastName,
		Avatar:     identity.Avatar,
		IsActive:   true,
	}
	if err := s.userRepo.Create(newUser); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.userRepo.GetByProviderID(identity.ProviderID)
		}
		return nil, err
	}

	granted, _, err := s.ledger.Grant(newUser.ID, models.FreeTierCredits, "Free tier welcome credits", nil)
	if err != nil {
		return nil, err
	}
	return granted, nil
}

// refreshProfile copies changed profile fields from the identity provider
// onto the stored row. The provider is the source of truth for these.
func (s *UserService) refreshProfile(user *models.User, identity models.UserIdentity) (*models.User, error) {
	changed := false
	if identity.Email != "" && identity.Email != user.Email {
		user.Email = identity.Email
		changed = true
	}
	if identity.FirstName != "" && identity.FirstName != user.FirstName {
		user.FirstName = identity.FirstName
		changed = true
	}
	if identity.LastName != "" && identity.LastName != user.LastName {
		user.LastName = identity.LastName
		changed = true
	}
	if identity.Avatar != "" && identity.Avatar != user.Avatar {
		user.Avatar = identity.Avatar
		changed = true
	}
	if !changed {
		return user, nil
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUserByProviderID(providerID string) (*models.User, error) {
	user, err := s.userRepo.GetByProviderID(providerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUserByID(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}
	return user, nil
}

// HasEnoughCredits is an advisory read for early rejection and UX. It is not
// atomic with any later debit; UseCredits re-checks inside its transaction.
func (s *UserService) HasEnoughCredits(userID uint, required int) (bool, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.Credits >= required, nil
}

// GrantCredits is the single grant primitive for ad-hoc credit additions.
// Purchases go through TransactionService, which funnels into the same
// ledger path.
func (s *UserService) GrantCredits(userID uint, amount int, description string, metadata map[string]interface{}) (*models.User, *models.CreditLog, error) {
	return s.ledger.Grant(userID, amount, description, models.MetadataJSON(metadata))
}

// UseCredits debits the balance and appends the usage ledger entry in one
// database transaction. Returns an insufficient-credits error when the
// balance at transaction time is below amount.
func (s *UserService) UseCredits(userID uint, amount int, description string, metadata map[string]interface{}) (*models.User, *models.CreditLog, error) {
	return s.ledger.Debit(userID, amount, description, models.MetadataJSON(metadata))
}

func (s *UserService) GetCreditHistory(userID uint, limit int) ([]models.CreditLog, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.ledger.History(userID, limit)
}

// GetDashboardData composes the read model for the dashboard page: aggregate
// counts plus the five most recent rows per collection.
func (s *UserService) GetDashboardData(user *models.User) (*models.DashboardResponse, error) {
	videoCount, err := s.videos.CountByUser(user.ID)
	if err != nil {
		return nil, err
	}
	imageCount, err := s.images.CountByUser(user.ID)
	if err != nil {
		return nil, err
	}
	txnCount, err := s.txns.CountByUser(user.ID)
	if err != nil {
		return nil, err
	}

	recentVideos, err := s.videos.ListByUser(user.ID, 5)
	if err != nil {
		return nil, err
	}
	recentImages, err := s.images.ListByUser(user.ID, 5)
	if err != nil {
		return nil, err
	}
	recentLogs, err := s.ledger.History(user.ID, 5)
	if err != nil {
		return nil, err
	}

	return &models.DashboardResponse{
		User: models.NewUserProfileResponse(user),
		Stats: models.DashboardStats{
			TotalVideos:       videoCount,
			TotalImages:       imageCount,
			TotalTransactions: txnCount,
		},
		RecentActivity: models.RecentActivity{
			Videos:     recentVideos,
			Images:     recentImages,
			CreditLogs: recentLogs,
		},
	}, nil
}
