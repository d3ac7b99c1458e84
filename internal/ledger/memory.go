package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kkkkikiki/flowfund/internal/model"
)

// Memory is an in-process funding ledger that enforces the contract's
// transition rules. It backs local development and tests.
type Memory struct {
	mu            sync.Mutex
	admin         string
	now           func() time.Time
	campaigns     []model.Snapshot
	contributions map[uint64]map[string]decimal.Decimal
}

// MemoryOption configures a Memory ledger.
type MemoryOption func(*Memory)

// WithClock overrides the ledger's notion of block time.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory creates an empty ledger administered by admin.
func NewMemory(admin string, opts ...MemoryOption) *Memory {
	m := &Memory{
		admin:         normalizeIdentity(admin),
		now:           time.Now,
		contributions: make(map[uint64]map[string]decimal.Decimal),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Seed stores a snapshot as-is, bypassing the contract rules. Snapshot ids
// must follow on from the existing ones.
func (m *Memory) Seed(s model.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Owner = normalizeIdentity(s.Owner)
	m.campaigns = append(m.campaigns, s)
}

func (m *Memory) TotalCampaigns(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint64(len(m.campaigns)), nil
}

func (m *Memory) CampaignDetails(ctx context.Context, id uint64) (model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

func (m *Memory) UserContribution(ctx context.Context, id uint64, identity string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.get(id); err != nil {
		return decimal.Zero, err
	}
	return m.contributions[id][normalizeIdentity(identity)], nil
}

func (m *Memory) Admin(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.admin, nil
}

func (m *Memory) CreateFunding(ctx context.Context, from, title, description string, target decimal.Decimal, durationDays uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := newCampaign(uint64(len(m.campaigns))+1, from, title, description, target, durationDays, m.now())
	if err != nil {
		return 0, err
	}
	m.campaigns = append(m.campaigns, c)
	return c.ID, nil
}

func (m *Memory) Contribute(ctx context.Context, from string, id uint64, value decimal.Decimal) error {
	return m.update(ctx, id, func(c model.Snapshot) (model.Snapshot, error) {
		next, err := applyContribute(c, value, m.now())
		if err != nil {
			return c, err
		}
		m.addContribution(id, from, value.Floor())
		return next, nil
	})
}

func (m *Memory) WithdrawFunds(ctx context.Context, from string, id uint64) error {
	return m.update(ctx, id, func(c model.Snapshot) (model.Snapshot, error) {
		return applyWithdraw(c, from)
	})
}

func (m *Memory) ClaimRefund(ctx context.Context, from string, id uint64) error {
	return m.update(ctx, id, func(c model.Snapshot) (model.Snapshot, error) {
		who := normalizeIdentity(from)
		next, err := applyRefund(c, m.contributions[id][who], m.now())
		if err != nil {
			return c, err
		}
		delete(m.contributions[id], who)
		return next, nil
	})
}

func (m *Memory) VerifyFunding(ctx context.Context, from string, id uint64) error {
	return m.update(ctx, id, func(c model.Snapshot) (model.Snapshot, error) {
		return applyVerify(c, from, m.admin)
	})
}

func (m *Memory) CancelCampaign(ctx context.Context, from string, id uint64) error {
	return m.update(ctx, id, func(c model.Snapshot) (model.Snapshot, error) {
		return applyCancel(c, from, m.admin)
	})
}

func (m *Memory) get(id uint64) (model.Snapshot, error) {
	if id == 0 || id > uint64(len(m.campaigns)) {
		return model.Snapshot{}, ErrCampaignNotFound
	}
	return m.campaigns[id-1], nil
}

func (m *Memory) update(ctx context.Context, id uint64, fn func(model.Snapshot) (model.Snapshot, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.get(id)
	if err != nil {
		return err
	}
	next, err := fn(c)
	if err != nil {
		return err
	}
	m.campaigns[id-1] = next
	return nil
}

func (m *Memory) addContribution(id uint64, from string, value decimal.Decimal) {
	byUser, ok := m.contributions[id]
	if !ok {
		byUser = make(map[string]decimal.Decimal)
		m.contributions[id] = byUser
	}
	who := normalizeIdentity(from)
	byUser[who] = byUser[who].Add(value)
}
