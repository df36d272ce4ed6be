package reconcile

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wyehealth/clinicbridge-backend/pkg/db/models"
	"github.com/wyehealth/clinicbridge-backend/pkg/enums"
	"github.com/wyehealth/clinicbridge-backend/pkg/logger"
	"github.com/wyehealth/clinicbridge-backend/pkg/regno"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func ptrTime(t time.Time) *time.Time { return &t }
func ptrStr(s string) *string        { return &s }
func ptrInt64(n int64) *int64        { return &n }

type fakeCMSStore struct {
	drugs          map[int64]*models.CMSDrug
	suppliers      map[int64]*models.CMSSupplier
	records        []models.CMSDeliveryRecord
	prescribed     map[int64]struct{}
	received       map[int64]struct{}
	depleted       map[int64]struct{}
	nextDrugID     int64
	nextSupplierID int64
	historyPurged  bool
}

func newFakeCMSStore() *fakeCMSStore {
	return &fakeCMSStore{
		drugs:      map[int64]*models.CMSDrug{},
		suppliers:  map[int64]*models.CMSSupplier{},
		prescribed: map[int64]struct{}{},
		received:   map[int64]struct{}{},
		depleted:   map[int64]struct{}{},
	}
}

func (f *fakeCMSStore) addDrug(drug models.CMSDrug) {
	if drug.ID == 0 {
		f.nextDrugID++
		drug.ID = f.nextDrugID
	} else if drug.ID > f.nextDrugID {
		f.nextDrugID = drug.ID
	}
	copied := drug
	f.drugs[drug.ID] = &copied
}

func (f *fakeCMSStore) addSupplier(supplier models.CMSSupplier) {
	if supplier.ID == 0 {
		f.nextSupplierID++
		supplier.ID = f.nextSupplierID
	} else if supplier.ID > f.nextSupplierID {
		f.nextSupplierID = supplier.ID
	}
	copied := supplier
	f.suppliers[supplier.ID] = &copied
}

func (f *fakeCMSStore) ListDrugs(context.Context) ([]models.CMSDrug, error) {
	ids := make([]int64, 0, len(f.drugs))
	for id := range f.drugs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]models.CMSDrug, 0, len(ids))
	for _, id := range ids {
		out = append(out, *f.drugs[id])
	}
	return out, nil
}

func (f *fakeCMSStore) ListTrashMarkedDrugs(ctx context.Context) ([]models.CMSDrug, error) {
	all, _ := f.ListDrugs(ctx)
	var out []models.CMSDrug
	for _, drug := range all {
		if drug.Location == models.TrashLocation {
			out = append(out, drug)
		}
	}
	return out, nil
}

func (f *fakeCMSStore) FindDrugByID(_ context.Context, id int64) (*models.CMSDrug, error) {
	drug, ok := f.drugs[id]
	if !ok {
		return nil, nil
	}
	copied := *drug
	return &copied, nil
}

func (f *fakeCMSStore) FindDrugByRegNo(ctx context.Context, reg string) (*models.CMSDrug, error) {
	all, _ := f.ListDrugs(ctx)
	for _, drug := range all {
		if regno.Normalize(drug.RegNo) == regno.Normalize(reg) {
			copied := drug
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeCMSStore) SaveDrug(_ context.Context, drug *models.CMSDrug) error {
	copied := *drug
	f.drugs[drug.ID] = &copied
	return nil
}

func (f *fakeCMSStore) CreateDrug(_ context.Context, drug *models.CMSDrug) error {
	f.nextDrugID++
	drug.ID = f.nextDrugID
	copied := *drug
	f.drugs[drug.ID] = &copied
	return nil
}

func (f *fakeCMSStore) DeleteDrugsByID(_ context.Context, ids []int64) (int64, error) {
	var deleted int64
	for _, id := range ids {
		if _, ok := f.drugs[id]; ok {
			delete(f.drugs, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeCMSStore) PrescribedDrugIDs(context.Context) (map[int64]struct{}, error) {
	return copyIDSet(f.prescribed), nil
}

func (f *fakeCMSStore) ReceivedDrugIDs(context.Context) (map[int64]struct{}, error) {
	return copyIDSet(f.received), nil
}

func (f *fakeCMSStore) DepletedDrugIDs(context.Context) (map[int64]struct{}, error) {
	return copyIDSet(f.depleted), nil
}

func copyIDSet(in map[int64]struct{}) map[int64]struct{} {
	out := make(map[int64]struct{}, len(in))
	for id := range in {
		out[id] = struct{}{}
	}
	return out
}

func (f *fakeCMSStore) ListSuppliers(context.Context) ([]models.CMSSupplier, error) {
	ids := make([]int64, 0, len(f.suppliers))
	for id := range f.suppliers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]models.CMSSupplier, 0, len(ids))
	for _, id := range ids {
		out = append(out, *f.suppliers[id])
	}
	return out, nil
}

func (f *fakeCMSStore) GetOrCreateSupplier(_ context.Context, name, address string, typ enums.SupplierType) (*models.CMSSupplier, bool, error) {
	for _, supplier := range f.suppliers {
		if supplier.Name == name {
			copied := *supplier
			return &copied, false, nil
		}
	}
	f.nextSupplierID++
	supplier := &models.CMSSupplier{ID: f.nextSupplierID, Name: name, Address: address, Type: typ}
	f.suppliers[supplier.ID] = supplier
	copied := *supplier
	return &copied, true, nil
}

func (f *fakeCMSStore) DeleteSupplier(_ context.Context, id int64) error {
	delete(f.suppliers, id)
	return nil
}

func (f *fakeCMSStore) CountDrugsBySupplier(_ context.Context, supplierID int64) (int64, error) {
	var count int64
	for _, drug := range f.drugs {
		if drug.CertHolderID != nil && *drug.CertHolderID == supplierID {
			count++
		}
	}
	return count, nil
}

func (f *fakeCMSStore) PurgeSupplierHistory(context.Context) error {
	f.historyPurged = true
	return nil
}

func (f *fakeCMSStore) ListDeliveryRecords(context.Context) ([]models.CMSDeliveryRecord, error) {
	out := make([]models.CMSDeliveryRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

type fakeRegistry struct {
	entries   map[string]*models.RegisteredDrug
	companies map[uuid.UUID]*models.Company
	saveCalls int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		entries:   map[string]*models.RegisteredDrug{},
		companies: map[uuid.UUID]*models.Company{},
	}
}

func (f *fakeRegistry) addEntry(drug models.RegisteredDrug) {
	if drug.ID == uuid.Nil {
		drug.ID = uuid.New()
	}
	drug.RegNo = regno.Normalize(drug.RegNo)
	copied := drug
	f.entries[drug.RegNo] = &copied
}

func (f *fakeRegistry) addCompany(company models.Company) uuid.UUID {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	copied := company
	f.companies[company.ID] = &copied
	return company.ID
}

func (f *fakeRegistry) List(context.Context) ([]models.RegisteredDrug, error) {
	keys := make([]string, 0, len(f.entries))
	for key := range f.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]models.RegisteredDrug, 0, len(keys))
	for _, key := range keys {
		out = append(out, *f.entries[key])
	}
	return out, nil
}

func (f *fakeRegistry) MapByRegNo(ctx context.Context) (map[string]models.RegisteredDrug, error) {
	out := make(map[string]models.RegisteredDrug, len(f.entries))
	for key, entry := range f.entries {
		out[key] = *entry
	}
	return out, nil
}

func (f *fakeRegistry) Save(_ context.Context, drug *models.RegisteredDrug) error {
	copied := *drug
	f.entries[regno.Normalize(drug.RegNo)] = &copied
	f.saveCalls++
	return nil
}

func (f *fakeRegistry) FindCompany(_ context.Context, id uuid.UUID) (*models.Company, error) {
	company, ok := f.companies[id]
	if !ok {
		return nil, nil
	}
	copied := *company
	return &copied, nil
}

type fakeItemStore struct {
	items       map[uuid.UUID]*models.Item
	saveCalls   int
	createCalls int
}

func newFakeItemStore() *fakeItemStore {
	return &fakeItemStore{items: map[uuid.UUID]*models.Item{}}
}

func (f *fakeItemStore) addItem(item models.Item) uuid.UUID {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	copied := item
	f.items[item.ID] = &copied
	return item.ID
}

func (f *fakeItemStore) ListWithCMSLink(context.Context) ([]models.Item, error) {
	var out []models.Item
	for _, item := range f.items {
		if item.CMSDrugID != nil || item.RegNo != nil {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (f *fakeItemStore) FindByID(_ context.Context, id uuid.UUID) (*models.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

func (f *fakeItemStore) FindByRegNo(_ context.Context, reg string) (*models.Item, error) {
	norm := regno.Normalize(reg)
	ids := make([]uuid.UUID, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	for _, id := range ids {
		item := f.items[id]
		if item.RegNo != nil && regno.Normalize(*item.RegNo) == norm {
			copied := *item
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeItemStore) Create(_ context.Context, item *models.Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	copied := *item
	f.items[item.ID] = &copied
	f.createCalls++
	return nil
}

func (f *fakeItemStore) Save(_ context.Context, item *models.Item) error {
	copied := *item
	f.items[item.ID] = &copied
	f.saveCalls++
	return nil
}

type fakeOrderStore struct {
	orders map[uuid.UUID]*models.DeliveryOrder
	lines  []models.DeliveryItem
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[uuid.UUID]*models.DeliveryOrder{}}
}

func (f *fakeOrderStore) FindOrderByExpenseID(_ context.Context, expenseID uuid.UUID) (*models.DeliveryOrder, error) {
	for _, order := range f.orders {
		if order.ExpenseID != nil && *order.ExpenseID == expenseID {
			copied := *order
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderStore) CreateOrder(_ context.Context, order *models.DeliveryOrder) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	copied := *order
	f.orders[order.ID] = &copied
	return nil
}

func (f *fakeOrderStore) CreateLineItem(_ context.Context, item *models.DeliveryItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	f.lines = append(f.lines, *item)
	return nil
}

func (f *fakeOrderStore) CountMatchingLineItems(_ context.Context, orderID uuid.UUID, itemID *uuid.UUID, quantity decimal.Decimal) (int64, error) {
	var count int64
	for _, line := range f.lines {
		if line.OrderID != orderID || !line.Quantity.Equal(quantity) {
			continue
		}
		switch {
		case itemID == nil && line.ItemID == nil:
			count++
		case itemID != nil && line.ItemID != nil && *itemID == *line.ItemID:
			count++
		}
	}
	return count, nil
}
