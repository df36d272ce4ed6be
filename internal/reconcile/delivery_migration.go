package reconcile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wyehealth/clinicbridge-backend/internal/deliveries"
	"github.com/wyehealth/clinicbridge-backend/pkg/db/models"
	"github.com/wyehealth/clinicbridge-backend/pkg/enums"
	"github.com/wyehealth/clinicbridge-backend/pkg/logger"
	"github.com/wyehealth/clinicbridge-backend/pkg/regno"
)

// MigrationCMS is the slice of the legacy store the migration needs.
type MigrationCMS interface {
	ListDeliveryRecords(ctx context.Context) ([]models.CMSDeliveryRecord, error)
	FindDrugByRegNo(ctx context.Context, regNo string) (*models.CMSDrug, error)
}

// MigrationItems is the slice of the modern item store the migration needs.
type MigrationItems interface {
	FindByRegNo(ctx context.Context, reg string) (*models.Item, error)
	Create(ctx context.Context, item *models.Item) error
	Save(ctx context.Context, item *models.Item) error
}

// MigrationOrders is the slice of the delivery store the migration needs.
type MigrationOrders interface {
	FindOrderByExpenseID(ctx context.Context, expenseID uuid.UUID) (*models.DeliveryOrder, error)
	CreateOrder(ctx context.Context, order *models.DeliveryOrder) error
	CreateLineItem(ctx context.Context, item *models.DeliveryItem) error
	CountMatchingLineItems(ctx context.Context, orderID uuid.UUID, itemID *uuid.UUID, quantity decimal.Decimal) (int64, error)
}

// NameChooser resolves a name conflict between an existing item and a legacy
// delivery record. ok=false means no choice was made and the conflict should
// be queued for manual review.
type NameChooser interface {
	Choose(ctx context.Context, regNo, current, incoming string) (choice string, ok bool, err error)
}

type queueChooser struct{}

func (queueChooser) Choose(context.Context, string, string, string) (string, bool, error) {
	return "", false, nil
}

// QueueConflicts returns a chooser that never picks a side; conflicting
// records are reported for manual review instead. This is the only safe
// default for scheduled runs.
func QueueConflicts() NameChooser { return queueChooser{} }

type promptChooser struct {
	in  *bufio.Reader
	out io.Writer
}

// PromptNames returns an interactive chooser that asks the operator to pick
// between the two names.
func PromptNames(in io.Reader, out io.Writer) NameChooser {
	return &promptChooser{in: bufio.NewReader(in), out: out}
}

func (c *promptChooser) Choose(_ context.Context, regNo, current, incoming string) (string, bool, error) {
	fmt.Fprintf(c.out, "name conflict for %s:\n  [1] keep %q\n  [2] take %q\nchoice: ", regNo, current, incoming)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false, fmt.Errorf("reading choice: %w", err)
	}
	switch strings.TrimSpace(line) {
	case "1":
		return current, true, nil
	case "2":
		return incoming, true, nil
	}
	return "", false, nil
}

// DeliveryMigrationParams configure the legacy delivery migration.
type DeliveryMigrationParams struct {
	CMS     MigrationCMS
	Items   MigrationItems
	Orders  MigrationOrders
	Logger  *logger.Logger
	Chooser NameChooser

	// ProgressEvery controls how often a progress log line is emitted.
	ProgressEvery int
}

// DeliveryMigrationPass folds flat legacy purchase records into the
// normalized delivery-order model. The ledger expense reference keys order
// deduplication, and an item/quantity match guards line duplication, so the
// whole migration can be rerun after a partial failure.
type DeliveryMigrationPass struct {
	cms           MigrationCMS
	items         MigrationItems
	orders        MigrationOrders
	logg          *logger.Logger
	chooser       NameChooser
	progressEvery int
}

// NewDeliveryMigrationPass validates params and builds the pass.
func NewDeliveryMigrationPass(params DeliveryMigrationParams) (*DeliveryMigrationPass, error) {
	if params.CMS == nil {
		return nil, fmt.Errorf("cms store required")
	}
	if params.Items == nil {
		return nil, fmt.Errorf("item store required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	chooser := params.Chooser
	if chooser == nil {
		chooser = QueueConflicts()
	}
	progressEvery := params.ProgressEvery
	if progressEvery <= 0 {
		progressEvery = 100
	}
	return &DeliveryMigrationPass{
		cms:           params.CMS,
		items:         params.Items,
		orders:        params.Orders,
		logg:          params.Logger,
		chooser:       chooser,
		progressEvery: progressEvery,
	}, nil
}

func (p *DeliveryMigrationPass) Name() string { return "migrate-legacy-deliveries" }

func (p *DeliveryMigrationPass) Run(ctx context.Context) (*Report, error) {
	report := NewReport(p.Name())

	records, err := p.cms.ListDeliveryRecords(ctx)
	if err != nil {
		return report, fmt.Errorf("list delivery records: %w", err)
	}

	for i, record := range records {
		if (i+1)%p.progressEvery == 0 {
			progressCtx := p.logg.WithFields(ctx, map[string]any{
				"done":  i + 1,
				"total": len(records),
			})
			p.logg.Info(progressCtx, "migration progress")
		}
		if err := p.migrateRecord(ctx, report, record); err != nil {
			return report, fmt.Errorf("record #%d: %w", record.ID, err)
		}
		report.Add("records_processed", 1)
	}
	return report, nil
}

func (p *DeliveryMigrationPass) migrateRecord(ctx context.Context, report *Report, record models.CMSDeliveryRecord) error {
	if record.ExpenseRef == "" {
		report.Linef("record #%d (%s) has no expense reference; skipped", record.ID, record.DrugName)
		report.Add("records_skipped", 1)
		return nil
	}
	expenseID, err := uuid.Parse(record.ExpenseRef)
	if err != nil {
		report.Linef("record #%d carries malformed expense reference %q; skipped", record.ID, record.ExpenseRef)
		report.Add("records_skipped", 1)
		return nil
	}

	item, err := p.resolveItem(ctx, report, record)
	if err != nil {
		return err
	}

	order, err := p.orders.FindOrderByExpenseID(ctx, expenseID)
	if err != nil {
		return fmt.Errorf("find order for expense %s: %w", expenseID, err)
	}
	if order == nil {
		order = &models.DeliveryOrder{
			ID:        uuid.New(),
			ExpenseID: &expenseID,
			Reference: legacyReference(record),
			Status:    enums.DeliveryOrderStatusReceived,
		}
		if err := p.orders.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("create order for expense %s: %w", expenseID, err)
		}
		report.Add("orders_created", 1)
	} else {
		report.Add("orders_reused", 1)
	}

	var itemID *uuid.UUID
	if item != nil {
		id := item.ID
		itemID = &id
	}
	existing, err := p.orders.CountMatchingLineItems(ctx, order.ID, itemID, record.Quantity)
	if err != nil {
		return fmt.Errorf("count lines on order %s: %w", order.ID, err)
	}
	if existing > 0 {
		report.Add("lines_already_present", 1)
		return nil
	}

	line := &models.DeliveryItem{
		ID:          uuid.New(),
		OrderID:     order.ID,
		ItemID:      itemID,
		Description: record.DrugName,
		Quantity:    record.Quantity,
		Bonus:       record.Bonus,
		UnitPrice:   record.UnitPrice,
		TotalPrice:  record.TotalPrice,
		ExpiryToken: deliveries.ExpiryToken(record.ExpiryDate),
	}
	if err := p.orders.CreateLineItem(ctx, line); err != nil {
		return fmt.Errorf("create line on order %s: %w", order.ID, err)
	}
	report.Add("lines_created", 1)
	return nil
}

// resolveItem finds or builds the modern item a legacy record refers to:
// first by registration number, then by backfilling from the legacy drug,
// finally by creating a bare item from the record itself.
func (p *DeliveryMigrationPass) resolveItem(ctx context.Context, report *Report, record models.CMSDeliveryRecord) (*models.Item, error) {
	norm := regno.Normalize(record.RegNo)
	if norm != "" {
		item, err := p.items.FindByRegNo(ctx, norm)
		if err != nil {
			return nil, fmt.Errorf("find item by regno %s: %w", norm, err)
		}
		if item != nil {
			report.Add("items_matched", 1)
			return item, p.reconcileName(ctx, report, item, record)
		}

		drug, err := p.cms.FindDrugByRegNo(ctx, norm)
		if err != nil {
			return nil, fmt.Errorf("find drug by regno %s: %w", norm, err)
		}
		if drug != nil {
			name := drug.ProductName
			if name == "" {
				name = record.DrugName
			}
			item = &models.Item{
				ID:        uuid.New(),
				Name:      name,
				RegNo:     &norm,
				CMSDrugID: &drug.ID,
				Active:    !drug.Discontinue,
			}
			if err := p.items.Create(ctx, item); err != nil {
				return nil, fmt.Errorf("backfill item for %s: %w", norm, err)
			}
			report.Add("items_created", 1)
			return item, nil
		}
	}

	item := &models.Item{
		ID:     uuid.New(),
		Name:   record.DrugName,
		Active: true,
	}
	if norm != "" {
		item.RegNo = &norm
	}
	if err := p.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create item for record #%d: %w", record.ID, err)
	}
	report.Add("items_created", 1)
	return item, nil
}

// reconcileName settles a disagreement between the matched item's name and
// the legacy record's drug name. Empty sides lose; two non-empty values go
// to the chooser, and an unresolved conflict is queued rather than decided.
func (p *DeliveryMigrationPass) reconcileName(ctx context.Context, report *Report, item *models.Item, record models.CMSDeliveryRecord) error {
	current := strings.TrimSpace(item.Name)
	incoming := strings.TrimSpace(record.DrugName)
	if incoming == "" || current == incoming {
		return nil
	}
	if current == "" {
		item.Name = incoming
		if err := p.items.Save(ctx, item); err != nil {
			return fmt.Errorf("fill name on item %s: %w", item.ID, err)
		}
		report.Add("names_updated", 1)
		return nil
	}

	choice, ok, err := p.chooser.Choose(ctx, record.RegNo, current, incoming)
	if err != nil {
		return fmt.Errorf("name choice for %s: %w", record.RegNo, err)
	}
	if !ok {
		report.Linef("name conflict for %s: item says %q, record #%d says %q; queued for review",
			record.RegNo, current, record.ID, incoming)
		report.Add("name_conflicts_queued", 1)
		return nil
	}
	if choice == current {
		return nil
	}
	item.Name = choice
	if err := p.items.Save(ctx, item); err != nil {
		return fmt.Errorf("rename item %s: %w", item.ID, err)
	}
	report.Add("names_updated", 1)
	return nil
}

func legacyReference(record models.CMSDeliveryRecord) string {
	if record.DeliveryID != nil {
		return fmt.Sprintf("cms-delivery-%d", *record.DeliveryID)
	}
	return fmt.Sprintf("cms-record-%d", record.ID)
}

var _ Pass = (*DeliveryMigrationPass)(nil)
