package service

import (
	"context"
	"time"

	"hwops-backend/internal/model"
	"hwops-backend/internal/repository"
	"hwops-backend/pkg/money"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory fakes for the repository layer. They keep the same error
// contracts as the gorm implementations (gorm.ErrRecordNotFound,
// repository.ErrStaleObject) so the services under test exercise their real
// translation paths.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- orders ---

type fakeOrderRepo struct {
	orders map[uuid.UUID]*model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *model.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.Version == 0 {
		order.Version = 1
	}
	order.CreatedAt = time.Now()
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	stored := *order
	r.orders[order.ID] = &stored
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	stored, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *stored
	cp.Items = append([]model.OrderItem(nil), stored.Items...)
	return &cp, nil
}

func (r *fakeOrderRepo) List(_ context.Context, status string, page, limit int) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.orders {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) UpdateVersioned(_ context.Context, id uuid.UUID, expectedVersion int, updates map[string]interface{}) error {
	stored, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != expectedVersion {
		return repository.ErrStaleObject
	}
	stored.Version = expectedVersion + 1
	for k, v := range updates {
		switch k {
		case "status":
			stored.Status = v.(string)
		case "payment_status":
			stored.PaymentStatus = v.(string)
		case "invoice_no":
			inv := v.(string)
			stored.InvoiceNo = &inv
		case "total_amount":
			stored.TotalAmount = money.Amount(v.(int64))
		case "item_count":
			stored.ItemCount = v.(int)
		}
	}
	return nil
}

func (r *fakeOrderRepo) ReplaceItems(_ context.Context, orderID uuid.UUID, items []model.OrderItem) error {
	stored, ok := r.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range items {
		items[i].OrderID = orderID
	}
	stored.Items = append([]model.OrderItem(nil), items...)
	return nil
}

func (r *fakeOrderRepo) CountCreatedOn(context.Context, time.Time) (int64, error) {
	return int64(len(r.orders)), nil
}

func (r *fakeOrderRepo) CountInvoiced(context.Context) (int64, error) {
	var n int64
	for _, o := range r.orders {
		if o.InvoiceNo != nil {
			n++
		}
	}
	return n, nil
}

// --- loading sheets ---

type fakeSheetRepo struct {
	sheets  map[uuid.UUID]*model.LoadingSheet
	entries []*model.LoadingSheetEntry
	orders  *fakeOrderRepo // for Entry.Order preloads
}

func newFakeSheetRepo(orders *fakeOrderRepo) *fakeSheetRepo {
	return &fakeSheetRepo{sheets: make(map[uuid.UUID]*model.LoadingSheet), orders: orders}
}

func (r *fakeSheetRepo) Create(_ context.Context, sheet *model.LoadingSheet) error {
	if sheet.ID == uuid.Nil {
		sheet.ID = uuid.New()
	}
	if sheet.Version == 0 {
		sheet.Version = 1
	}
	sheet.CreatedAt = time.Now()
	stored := *sheet
	r.sheets[sheet.ID] = &stored
	return nil
}

func (r *fakeSheetRepo) CreateEntry(_ context.Context, entry *model.LoadingSheetEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	cp := *entry
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *fakeSheetRepo) FindByID(_ context.Context, id uuid.UUID) (*model.LoadingSheet, error) {
	stored, ok := r.sheets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *stored
	cp.Entries = nil
	for _, e := range r.entries {
		if e.SheetID != id {
			continue
		}
		ecp := *e
		if o, ok := r.orders.orders[e.OrderID]; ok {
			ocp := *o
			ecp.Order = &ocp
		}
		cp.Entries = append(cp.Entries, ecp)
	}
	return &cp, nil
}

func (r *fakeSheetRepo) List(_ context.Context, status string, page, limit int) ([]model.LoadingSheet, int64, error) {
	var out []model.LoadingSheet
	for _, s := range r.sheets {
		if status == "" || s.Status == status {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeSheetRepo) UpdateVersioned(_ context.Context, id uuid.UUID, expectedVersion int, updates map[string]interface{}) error {
	stored, ok := r.sheets[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != expectedVersion {
		return repository.ErrStaleObject
	}
	stored.Version = expectedVersion + 1
	for k, v := range updates {
		switch k {
		case "status":
			stored.Status = v.(string)
		case "vehicle_no":
			stored.VehicleNo = v.(string)
		case "driver_name":
			stored.DriverName = v.(string)
		case "helper_name":
			stored.HelperName = v.(string)
		case "scheduled_date":
			stored.ScheduledDate = v.(time.Time)
		}
	}
	return nil
}

func (r *fakeSheetRepo) DeleteEntry(_ context.Context, sheetID, orderID uuid.UUID) error {
	kept := r.entries[:0]
	for _, e := range r.entries {
		if !(e.SheetID == sheetID && e.OrderID == orderID) {
			kept = append(kept, e)
		}
	}
	r.entries = kept
	return nil
}

func (r *fakeSheetRepo) SetEntryFinalAmount(_ context.Context, sheetID, orderID uuid.UUID, amount money.Amount) error {
	for _, e := range r.entries {
		if e.SheetID == sheetID && e.OrderID == orderID {
			a := amount
			e.FinalAmount = &a
			return nil
		}
	}
	return nil
}

func (r *fakeSheetRepo) OpenSheetForOrder(_ context.Context, orderID uuid.UUID) (*model.LoadingSheet, error) {
	for _, e := range r.entries {
		if e.OrderID != orderID {
			continue
		}
		sheet, ok := r.sheets[e.SheetID]
		if ok && sheet.Status != model.LoadStatusCompleted {
			cp := *sheet
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSheetRepo) Count(context.Context) (int64, error) {
	return int64(len(r.sheets)), nil
}

// entryFor is a test helper to inspect a binding directly.
func (r *fakeSheetRepo) entryFor(sheetID, orderID uuid.UUID) *model.LoadingSheetEntry {
	for _, e := range r.entries {
		if e.SheetID == sheetID && e.OrderID == orderID {
			return e
		}
	}
	return nil
}

// --- stock ledger ---

type fakeStockRepo struct {
	movements []model.StockMovement
}

func (r *fakeStockRepo) Append(_ context.Context, movement *model.StockMovement) error {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	movement.CreatedAt = time.Now()
	r.movements = append(r.movements, *movement)
	return nil
}

func (r *fakeStockRepo) LastForUpdate(_ context.Context, productID, locationID uuid.UUID) (*model.StockMovement, error) {
	for i := len(r.movements) - 1; i >= 0; i-- {
		m := r.movements[i]
		if m.ProductID == productID && m.LocationID == locationID {
			return &m, nil
		}
	}
	return nil, nil
}

func (r *fakeStockRepo) History(_ context.Context, productID uuid.UUID, locationID *uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.ProductID != productID {
			continue
		}
		if locationID != nil && m.LocationID != *locationID {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *fakeStockRepo) BalancesByProduct(_ context.Context, productID uuid.UUID) ([]repository.LocationBalance, error) {
	latest := make(map[uuid.UUID]int)
	for _, m := range r.movements {
		if m.ProductID == productID {
			latest[m.LocationID] = m.BalanceAfter
		}
	}
	var out []repository.LocationBalance
	for loc, bal := range latest {
		out = append(out, repository.LocationBalance{LocationID: loc, Balance: bal})
	}
	return out, nil
}

func (r *fakeStockRepo) SalesByReference(_ context.Context, referenceID uuid.UUID) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.Type == model.MovementSale && m.ReferenceID != nil && *m.ReferenceID == referenceID {
			out = append(out, m)
		}
	}
	return out, nil
}

// --- catalog ---

type fakeCatalogRepo struct {
	locations  map[uuid.UUID]*model.Location
	suppliers  map[uuid.UUID]*model.Supplier
	customers  map[uuid.UUID]*model.Customer
	categories map[string]*model.Category
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		locations:  make(map[uuid.UUID]*model.Location),
		suppliers:  make(map[uuid.UUID]*model.Supplier),
		customers:  make(map[uuid.UUID]*model.Customer),
		categories: make(map[string]*model.Category),
	}
}

func (r *fakeCatalogRepo) addLocation(name string) *model.Location {
	loc := &model.Location{ID: uuid.New(), Name: name}
	r.locations[loc.ID] = loc
	return loc
}

func (r *fakeCatalogRepo) addSupplier(name string) *model.Supplier {
	s := &model.Supplier{ID: uuid.New(), Name: name, IsActive: true}
	r.suppliers[s.ID] = s
	return s
}

func (r *fakeCatalogRepo) addCategory(name string) *model.Category {
	c := &model.Category{ID: uuid.New(), Name: name}
	r.categories[name] = c
	return c
}

func (r *fakeCatalogRepo) FindLocation(_ context.Context, id uuid.UUID) (*model.Location, error) {
	if loc, ok := r.locations[id]; ok {
		return loc, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCatalogRepo) FindLocationByName(_ context.Context, name string) (*model.Location, error) {
	for _, loc := range r.locations {
		if loc.Name == name {
			return loc, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCatalogRepo) ListLocations(_ context.Context) ([]model.Location, error) {
	var out []model.Location
	for _, loc := range r.locations {
		out = append(out, *loc)
	}
	return out, nil
}

func (r *fakeCatalogRepo) EnsureLocation(ctx context.Context, name string) (*model.Location, error) {
	if loc, err := r.FindLocationByName(ctx, name); err == nil {
		return loc, nil
	}
	return r.addLocation(name), nil
}

func (r *fakeCatalogRepo) FindSupplier(_ context.Context, id uuid.UUID) (*model.Supplier, error) {
	if s, ok := r.suppliers[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCatalogRepo) FindCustomer(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	if c, ok := r.customers[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCatalogRepo) FindCategoryByName(_ context.Context, name string) (*model.Category, error) {
	if c, ok := r.categories[name]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// --- products ---

type fakeProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *fakeProductRepo) add(sku, name string) *model.Product {
	p := &model.Product{ID: uuid.New(), SKU: sku, Name: name}
	r.products[p.ID] = p
	return p
}

func (r *fakeProductRepo) Create(_ context.Context, product *model.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	cp := *product
	r.products[product.ID] = &cp
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *model.Product) error {
	cp := *product
	r.products[product.ID] = &cp
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	if p, ok := r.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) FindBySKU(_ context.Context, sku string) (*model.Product, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) List(_ context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

// --- audit ---

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	for _, e := range r.entries {
		if action == "" || e.Action == action {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAuditRepo) lastAction() string {
	if len(r.entries) == 0 {
		return ""
	}
	return r.entries[len(r.entries)-1].Action
}

// --- commission rules ---

type fakeCommissionRepo struct {
	rules []*model.CommissionRule
}

func (r *fakeCommissionRepo) Create(_ context.Context, rule *model.CommissionRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	cp := *rule
	r.rules = append(r.rules, &cp)
	return nil
}

func (r *fakeCommissionRepo) Delete(_ context.Context, id uuid.UUID) error {
	kept := r.rules[:0]
	for _, rule := range r.rules {
		if rule.ID != id {
			kept = append(kept, rule)
		}
	}
	r.rules = kept
	return nil
}

func (r *fakeCommissionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CommissionRule, error) {
	for _, rule := range r.rules {
		if rule.ID == id {
			cp := *rule
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCommissionRepo) FindBySupplierAndScope(_ context.Context, supplierID uuid.UUID, scope model.CategoryScope) (*model.CommissionRule, error) {
	for _, rule := range r.rules {
		if rule.SupplierID == supplierID && rule.Scope.String() == scope.String() {
			cp := *rule
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCommissionRepo) List(_ context.Context, page, limit int) ([]model.CommissionRule, int64, error) {
	var out []model.CommissionRule
	for _, rule := range r.rules {
		out = append(out, *rule)
	}
	return out, int64(len(out)), nil
}
