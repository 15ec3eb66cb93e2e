package service

import (
	"context"
	"fmt"
	"io"

	"github.com/mediamorph/mediamorph-backend/internal/apperr"
	"github.com/mediamorph/mediamorph-backend/internal/models"
	"github.com/mediamorph/mediamorph-backend/pkg/media"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// In-memory fakes for the store interfaces. The ledger fake mirrors the real
// repository's behavior: every balance change pairs with one log row, and a
// debit is rejected when it would overdraw.

type fakeUserStore struct {
	nextID uint
	users  map[uint]*models.User

	// missLookups makes GetByProviderID report not-found that many times,
	// simulating the window where a concurrent insert has not yet been seen.
	missLookups int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{nextID: 1, users: make(map[uint]*models.User)}
}

func (s *fakeUserStore) Create(user *models.User) error {
	for _, u := range s.users {
		if u.ProviderID == user.ProviderID {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = s.nextID
	s.nextID++
	copy := *user
	s.users[user.ID] = &copy
	return nil
}

func (s *fakeUserStore) GetByID(id uint) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *u
	return &copy, nil
}

func (s *fakeUserStore) Update(user *models.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copy := *user
	s.users[user.ID] = &copy
	return nil
}

func (s *fakeUserStore) GetByProviderID(providerID string) (*models.User, error) {
	if s.missLookups > 0 {
		s.missLookups--
		return nil, gorm.ErrRecordNotFound
	}
	for _, u := range s.users {
		if u.ProviderID == providerID {
			copy := *u
			return &copy, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeLedger struct {
	users *fakeUserStore
	txns  *fakeTxnStore
	logs  []models.CreditLog

	// debitErr forces Debit to fail, for exercising compensation paths.
	debitErr error
}

func newFakeLedger(users *fakeUserStore, txns *fakeTxnStore) *fakeLedger {
	return &fakeLedger{users: users, txns: txns}
}

func (l *fakeLedger) Grant(userID uint, amount int, description string, metadata datatypes.JSON) (*models.User, *models.CreditLog, error) {
	if amount <= 0 {
		return nil, nil, apperr.Validation("grant amount must be positive")
	}
	u, ok := l.users.users[userID]
	if !ok {
		return nil, nil, apperr.NotFound("User not found")
	}
	u.Credits += amount
	entry := models.CreditLog{
		ID:          uint(len(l.logs) + 1),
		UserID:      userID,
		Amount:      amount,
		Type:        models.CreditLogPurchase,
		Description: description,
		Metadata:    metadata,
	}
	l.logs = append(l.logs, entry)
	copy := *u
	return &copy, &entry, nil
}

func (l *fakeLedger) Debit(userID uint, amount int, description string, metadata datatypes.JSON) (*models.User, *models.CreditLog, error) {
	if l.debitErr != nil {
		return nil, nil, l.debitErr
	}
	u, ok := l.users.users[userID]
	if !ok {
		return nil, nil, apperr.NotFound("User not found")
	}
	if u.Credits < amount {
		return nil, nil, apperr.InsufficientCredits(u.Credits, amount)
	}
	u.Credits -= amount
	entry := models.CreditLog{
		ID:          uint(len(l.logs) + 1),
		UserID:      userID,
		Amount:      -amount,
		Type:        models.CreditLogUsage,
		Description: description,
		Metadata:    metadata,
	}
	l.logs = append(l.logs, entry)
	copy := *u
	return &copy, &entry, nil
}

func (l *fakeLedger) CompletePurchase(transactionID uint, credits int) (*models.Transaction, *models.User, error) {
	txn, ok := l.txns.txns[transactionID]
	if !ok {
		return nil, nil, apperr.NotFound("Transaction not found")
	}
	txn.Status = models.TransactionStatusCompleted
	user, _, err := l.Grant(txn.UserID, credits, fmt.Sprintf("Credit purchase - %d credits", credits), nil)
	if err != nil {
		return nil, nil, err
	}
	copy := *txn
	return &copy, user, nil
}

func (l *fakeLedger) History(userID uint, limit int) ([]models.CreditLog, error) {
	var out []models.CreditLog
	for i := len(l.logs) - 1; i >= 0; i-- {
		if l.logs[i].UserID != userID {
			continue
		}
		out = append(out, l.logs[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// ledgerSum recomputes the balance from the log, for reconciliation checks.
func (l *fakeLedger) ledgerSum(userID uint) int {
	sum := 0
	for _, e := range l.logs {
		if e.UserID == userID {
			sum += e.Amount
		}
	}
	return sum
}

type fakeTxnStore struct {
	nextID uint
	txns   map[uint]*models.Transaction
}

func newFakeTxnStore() *fakeTxnStore {
	return &fakeTxnStore{nextID: 1, txns: make(map[uint]*models.Transaction)}
}

func (s *fakeTxnStore) Create(txn *models.Transaction) error {
	txn.ID = s.nextID
	s.nextID++
	copy := *txn
	s.txns[txn.ID] = &copy
	return nil
}

func (s *fakeTxnStore) GetByID(id uint) (*models.Transaction, error) {
	t, ok := s.txns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *t
	return &copy, nil
}

func (s *fakeTxnStore) GetBySessionID(sessionID string) (*models.Transaction, error) {
	for _, t := range s.txns {
		if t.StripeSessionID == sessionID {
			copy := *t
			return &copy, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeTxnStore) UpdateStatus(id uint, status string) error {
	t, ok := s.txns[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Status = status
	return nil
}

func (s *fakeTxnStore) SetPaymentIntent(id uint, paymentIntentID string) error {
	t, ok := s.txns[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.StripePaymentIntentID = paymentIntentID
	return nil
}

func (s *fakeTxnStore) ListByUser(userID uint, limit int) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range s.txns {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeTxnStore) CountByUser(userID uint) (int64, error) {
	list, _ := s.ListByUser(userID, 0)
	return int64(len(list)), nil
}

type fakeImageStore struct {
	nextID  uint
	images  map[uint]*models.Image
	deleted []uint
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{nextID: 1, images: make(map[uint]*models.Image)}
}

func (s *fakeImageStore) Create(image *models.Image) error {
	image.ID = s.nextID
	s.nextID++
	copy := *image
	s.images[image.ID] = &copy
	return nil
}

func (s *fakeImageStore) Delete(id uint) error {
	delete(s.images, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeImageStore) ListByUser(userID uint, limit int) ([]models.Image, error) {
	var out []models.Image
	for _, img := range s.images {
		if img.UserID == userID {
			out = append(out, *img)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeImageStore) CountByUser(userID uint) (int64, error) {
	list, _ := s.ListByUser(userID, 0)
	return int64(len(list)), nil
}

type fakeVideoStore struct {
	nextID  uint
	videos  map[uint]*models.Video
	deleted []uint
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{nextID: 1, videos: make(map[uint]*models.Video)}
}

func (s *fakeVideoStore) Create(video *models.Video) error {
	video.ID = s.nextID
	s.nextID++
	copy := *video
	s.videos[video.ID] = &copy
	return nil
}

func (s *fakeVideoStore) Delete(id uint) error {
	delete(s.videos, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeVideoStore) ListByUser(userID uint, limit int) ([]models.Video, error) {
	var out []models.Video
	for _, v := range s.videos {
		if v.UserID == userID {
			out = append(out, *v)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeVideoStore) CountByUser(userID uint) (int64, error) {
	list, _ := s.ListByUser(userID, 0)
	return int64(len(list)), nil
}

type fakePackageStore struct {
	packages []models.CreditPackage
}

func (s *fakePackageStore) GetByKey(key string) (*models.CreditPackage, error) {
	for _, p := range s.packages {
		if p.Key == key {
			copy := p
			return &copy, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakePackageStore) GetAll() ([]models.CreditPackage, error) {
	return s.packages, nil
}

type fakeUploader struct {
	uploads   int
	destroyed []string
	uploadErr error
}

func (u *fakeUploader) UploadImage(ctx context.Context, src io.Reader, filename, folder string) (*media.UploadResult, error) {
	if u.uploadErr != nil {
		return nil, u.uploadErr
	}
	u.uploads++
	return &media.UploadResult{
		PublicID:  fmt.Sprintf("%s/upload-%d", folder, u.uploads),
		SecureURL: fmt.Sprintf("https://res.example.com/%s/upload-%d", folder, u.uploads),
		Bytes:     1024,
	}, nil
}

func (u *fakeUploader) UploadVideo(ctx context.Context, src io.Reader, filename, folder string) (*media.UploadResult, error) {
	if u.uploadErr != nil {
		return nil, u.uploadErr
	}
	u.uploads++
	return &media.UploadResult{
		PublicID:  fmt.Sprintf("%s/video-%d", folder, u.uploads),
		SecureURL: fmt.Sprintf("https://res.example.com/%s/video-%d", folder, u.uploads),
		Bytes:     4096,
		Duration:  12.5,
	}, nil
}

func (u *fakeUploader) Destroy(ctx context.Context, publicID, resourceType string) error {
	u.destroyed = append(u.destroyed, publicID)
	return nil
}

func (u *fakeUploader) DeliveryURL(publicID string) string {
	return "https://res.example.com/image/upload/" + publicID
}

func (u *fakeUploader) BackgroundReplaceURL(publicID, prompt string) string {
	return "https://res.example.com/bg-replace/" + publicID
}

func (u *fakeUploader) GenerativeReplaceURL(publicID, from, to string) string {
	return "https://res.example.com/gen-replace/" + publicID
}

func (u *fakeUploader) GenerativeFillURL(publicID, prompt string, width, height int) string {
	return fmt.Sprintf("https://res.example.com/gen-fill/%s/%dx%d", publicID, width, height)
}

func (u *fakeUploader) BackgroundRemovalURL(publicID string) string {
	return "https://res.example.com/bg-removal/" + publicID
}

type fakeGenerator struct {
	calls       int
	generateErr error
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.generateErr != nil {
		return "", g.generateErr
	}
	g.calls++
	return fmt.Sprintf("https://gradio.example.com/generated-%d.webp", g.calls), nil
}

type fakeArchive struct {
	keys   []string
	putErr error
}

func (a *fakeArchive) Put(ctx context.Context, key string, src io.Reader, size int64) error {
	if a.putErr != nil {
		return a.putErr
	}
	a.keys = append(a.keys, key)
	return nil
}

func (a *fakeArchive) Delete(ctx context.Context, key string) error {
	return nil
}

type fakeMailer struct {
	sent []string
}

func (m *fakeMailer) SendPurchaseReceipt(to string, credits int, amount int64, currency string) error {
	m.sent = append(m.sent, to)
	return nil
}
