package actor

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("account not found")

// Directory is the read/transition interface over account trust state.
type Directory interface {
	GetStatus(ctx context.Context, actorID string) (TrustStatus, error)
	CreatedAt(ctx context.Context, actorID string) (time.Time, error)
	// Transition updates the account status to `to`, but only if the current
	// status is one of `from`. Returns false (without error) when the guard
	// did not match, so callers can't clobber a concurrent admin action.
	Transition(ctx context.Context, actorID string, from []TrustStatus, to TrustStatus) (bool, error)
}

// Account is the minimal projection of the identity service's user row which
// this core reads and mutates.
type Account struct {
	ID        string      `gorm:"primarykey"`
	Status    TrustStatus `gorm:"index;default:pending"`
	CreatedAt time.Time
}

type GormDirectory struct {
	DB *gorm.DB
}

var _ Directory = (*GormDirectory)(nil)

func NewGormDirectory(db *gorm.DB) (*GormDirectory, error) {
	if err := db.AutoMigrate(&Account{}); err != nil {
		return nil, err
	}
	return &GormDirectory{DB: db}, nil
}

func (d *GormDirectory) GetStatus(ctx context.Context, actorID string) (TrustStatus, error) {
	var acct Account
	err := d.DB.WithContext(ctx).Select("id", "status").First(&acct, "id = ?", actorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	} else if err != nil {
		return "", err
	}
	return acct.Status, nil
}

func (d *GormDirectory) CreatedAt(ctx context.Context, actorID string) (time.Time, error) {
	var acct Account
	err := d.DB.WithContext(ctx).Select("id", "created_at").First(&acct, "id = ?", actorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, ErrNotFound
	} else if err != nil {
		return time.Time{}, err
	}
	return acct.CreatedAt, nil
}

func (d *GormDirectory) Transition(ctx context.Context, actorID string, from []TrustStatus, to TrustStatus) (bool, error) {
	res := d.DB.WithContext(ctx).Model(&Account{}).
		Where("id = ? AND status IN ?", actorID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MemDirectory is an in-memory Directory for tests and local development.
type MemDirectory struct {
	mu   sync.Mutex
	rows map[string]*Account
}

var _ Directory = (*MemDirectory)(nil)

func NewMemDirectory() *MemDirectory {
	return &MemDirectory{rows: make(map[string]*Account)}
}

func (d *MemDirectory) Put(acct Account) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = time.Now()
	}
	d.rows[acct.ID] = &acct
}

func (d *MemDirectory) GetStatus(ctx context.Context, actorID string) (TrustStatus, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	acct, ok := d.rows[actorID]
	if !ok {
		return "", ErrNotFound
	}
	return acct.Status, nil
}

func (d *MemDirectory) CreatedAt(ctx context.Context, actorID string) (time.Time, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	acct, ok := d.rows[actorID]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	return acct.CreatedAt, nil
}

func (d *MemDirectory) Transition(ctx context.Context, actorID string, from []TrustStatus, to TrustStatus) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	acct, ok := d.rows[actorID]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if acct.Status == f {
			acct.Status = to
			return true, nil
		}
	}
	return false, nil
}
