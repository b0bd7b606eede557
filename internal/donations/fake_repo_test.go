package donations

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"carelink/internal/utils"
	"carelink/pkg/types"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type fakeState struct {
	items     map[string]types.DonationItem
	inventory map[string]types.Inventory
	donations map[string]types.Donation
}

func (s *fakeState) clone() *fakeState {
	out := &fakeState{
		items:     make(map[string]types.DonationItem, len(s.items)),
		inventory: make(map[string]types.Inventory, len(s.inventory)),
		donations: make(map[string]types.Donation, len(s.donations)),
	}
	for k, v := range s.items {
		out.items[k] = v
	}
	for k, v := range s.inventory {
		out.inventory[k] = v
	}
	for k, v := range s.donations {
		out.donations[k] = v
	}
	return out
}

// fakeRepo is an in-memory Repository and Transactor. Transactions are
// serialised and restore a snapshot when fn fails.
type fakeRepo struct {
	mu    sync.Mutex
	state *fakeState

	failRestock error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{state: &fakeState{
		items:     make(map[string]types.DonationItem),
		inventory: make(map[string]types.Inventory),
		donations: make(map[string]types.Donation),
	}}
}

func (f *fakeRepo) InTx(ctx context.Context, fn func(repo Repository) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshot := f.state.clone()
	if err := fn(f); err != nil {
		f.state = snapshot
		return err
	}
	return nil
}

func (f *fakeRepo) addItem(name string, active bool) types.DonationItem {
	item := types.DonationItem{
		ID:           utils.NanoID(),
		Name:         name,
		Unit:         "kg",
		RequiredQty:  decimal.NewFromInt(100),
		FulfilledQty: decimal.Zero,
		IsActive:     active,
	}
	f.state.items[item.ID] = item
	f.state.inventory[item.ID] = types.Inventory{ItemID: item.ID, QuantityOnHand: decimal.Zero}
	return item
}

func (f *fakeRepo) Item(ctx context.Context, itemID string) (*types.DonationItem, error) {
	item, ok := f.state.items[itemID]
	if !ok {
		return nil, types.ErrItemNotFound
	}
	return &item, nil
}

func (f *fakeRepo) AddFulfilled(ctx context.Context, itemID string, qty decimal.Decimal) (bool, error) {
	item, ok := f.state.items[itemID]
	if !ok {
		return false, nil
	}
	item.FulfilledQty = item.FulfilledQty.Add(qty)
	f.state.items[itemID] = item
	return true, nil
}

func (f *fakeRepo) Restock(ctx context.Context, itemID string, qty decimal.Decimal, updatedBy string) error {
	if f.failRestock != nil {
		return f.failRestock
	}
	now := time.Now()
	inv, ok := f.state.inventory[itemID]
	if !ok {
		inv = types.Inventory{ItemID: itemID}
	}
	inv.QuantityOnHand = inv.QuantityOnHand.Add(qty)
	inv.LastRestockedAt = &now
	inv.UpdatedBy = &updatedBy
	inv.UpdatedAt = now
	f.state.inventory[itemID] = inv
	return nil
}

func (f *fakeRepo) Donation(ctx context.Context, donationID string) (*types.Donation, error) {
	d, ok := f.state.donations[donationID]
	if !ok {
		return nil, types.ErrDonationNotFound
	}
	return &d, nil
}

func (f *fakeRepo) Donations(ctx context.Context, filter types.DonationFilter) ([]*types.Donation, error) {
	out := make([]*types.Donation, 0)
	for _, d := range f.state.donations {
		if filter.UserID != "" && d.UserID != filter.UserID {
			continue
		}
		if filter.ItemID != "" && d.ItemID != filter.ItemID {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		d := d
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DonatedAt.After(out[j].DonatedAt) })
	return out, nil
}

func (f *fakeRepo) CreateDonation(ctx context.Context, donation *types.Donation) error {
	if _, ok := f.state.items[donation.ItemID]; !ok {
		return types.ErrItemNotFound
	}
	donation.ID = utils.NanoID()
	donation.Status = types.DonationStatusPledged
	donation.DonatedAt = time.Now()
	f.state.donations[donation.ID] = *donation
	return nil
}

func (f *fakeRepo) MarkVerified(ctx context.Context, donationID, verifiedBy string) (*types.Donation, error) {
	d, ok := f.state.donations[donationID]
	if !ok || d.Status != types.DonationStatusPledged {
		return nil, nil
	}
	now := time.Now()
	d.Status = types.DonationStatusVerified
	d.VerifiedAt = &now
	d.VerifiedBy = &verifiedBy
	f.state.donations[donationID] = d
	return &d, nil
}

type fakeInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeInvalidator) InvalidateReport(ctx context.Context) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
