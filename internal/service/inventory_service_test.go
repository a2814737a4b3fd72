package service

import (
	"context"
	"testing"

	"hwops-backend/internal/apperr"
	"hwops-backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inventoryServiceEnv struct {
	svc       InventoryService
	stock     *fakeStockRepo
	products  *fakeProductRepo
	catalog   *fakeCatalogRepo
	audit     *fakeAuditRepo
	drill     *model.Product
	warehouse *model.Location
}

func newInventoryServiceEnv() *inventoryServiceEnv {
	stock := &fakeStockRepo{}
	products := newFakeProductRepo()
	catalog := newFakeCatalogRepo()
	audit := &fakeAuditRepo{}
	return &inventoryServiceEnv{
		svc:       NewInventoryService(stock, products, catalog, audit, fakeTxManager{}),
		stock:     stock,
		products:  products,
		catalog:   catalog,
		audit:     audit,
		drill:     products.add("PWR-DRL-01", "Power Drill"),
		warehouse: catalog.addLocation(model.MainWarehouseName),
	}
}

func (e *inventoryServiceEnv) append(t *testing.T, movType string, qty int) *model.StockMovement {
	t.Helper()
	m, err := e.svc.AppendMovement(context.Background(), MovementInput{
		ProductID:  e.drill.ID,
		LocationID: e.warehouse.ID,
		Type:       movType,
		Quantity:   qty,
	})
	require.NoError(t, err)
	return m
}

func TestAppendMovementChainsBalance(t *testing.T) {
	env := newInventoryServiceEnv()

	purchase := env.append(t, model.MovementPurchase, 10)
	assert.Equal(t, 10, purchase.Quantity)
	assert.Equal(t, 10, purchase.BalanceAfter)

	sale := env.append(t, model.MovementSale, 4)
	assert.Equal(t, -4, sale.Quantity, "sale quantities are stored negative")
	assert.Equal(t, 6, sale.BalanceAfter)

	ret := env.append(t, model.MovementReturn, 1)
	assert.Equal(t, 1, ret.Quantity)
	assert.Equal(t, 7, ret.BalanceAfter)

	damage := env.append(t, model.MovementDamage, 2)
	assert.Equal(t, -2, damage.Quantity)
	assert.Equal(t, 5, damage.BalanceAfter)
}

func TestAppendMovementTracksLocationsIndependently(t *testing.T) {
	env := newInventoryServiceEnv()
	shopFloor := env.catalog.addLocation("Shop Floor")

	env.append(t, model.MovementPurchase, 10)
	m, err := env.svc.AppendMovement(context.Background(), MovementInput{
		ProductID:  env.drill.ID,
		LocationID: shopFloor.ID,
		Type:       model.MovementPurchase,
		Quantity:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, m.BalanceAfter, "each (product, location) pair has its own chain")

	total, err := env.svc.ProductStocks(context.Background(), env.drill.ID)
	require.NoError(t, err)
	assert.Equal(t, 13, total.TotalStock)
	assert.Len(t, total.Locations, 2)
}

func TestAppendMovementRejectsNegativeStock(t *testing.T) {
	env := newInventoryServiceEnv()
	env.append(t, model.MovementPurchase, 3)

	_, err := env.svc.AppendMovement(context.Background(), MovementInput{
		ProductID:  env.drill.ID,
		LocationID: env.warehouse.ID,
		Type:       model.MovementSale,
		Quantity:   5,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNegativeStock, apperr.KindOf(err))
	assert.Contains(t, err.Error(), env.drill.SKU)
}

func TestAdjustmentMayDriveBalanceNegative(t *testing.T) {
	env := newInventoryServiceEnv()

	m, err := env.svc.AppendMovement(context.Background(), MovementInput{
		ProductID:  env.drill.ID,
		LocationID: env.warehouse.ID,
		Type:       model.MovementAdjustment,
		Quantity:   -3,
		Note:       "stocktake correction",
	})
	require.NoError(t, err)
	assert.Equal(t, -3, m.BalanceAfter)
}

func TestAppendMovementRejectsBadQuantities(t *testing.T) {
	env := newInventoryServiceEnv()

	for _, in := range []MovementInput{
		{ProductID: env.drill.ID, LocationID: env.warehouse.ID, Type: model.MovementSale, Quantity: 0},
		{ProductID: env.drill.ID, LocationID: env.warehouse.ID, Type: model.MovementPurchase, Quantity: -2},
		{ProductID: env.drill.ID, LocationID: env.warehouse.ID, Type: model.MovementAdjustment, Quantity: 0},
		{ProductID: env.drill.ID, LocationID: env.warehouse.ID, Type: "TRANSFER", Quantity: 1},
	} {
		_, err := env.svc.AppendMovement(context.Background(), in)
		require.Error(t, err, "type %s qty %d", in.Type, in.Quantity)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}
}

func TestRecordMovementValidatesReferencesAndAudits(t *testing.T) {
	env := newInventoryServiceEnv()

	_, err := env.svc.RecordMovement(context.Background(), uuid.NewString(), RecordMovementRequest{
		ProductID:  uuid.NewString(),
		LocationID: env.warehouse.ID.String(),
		Type:       model.MovementPurchase,
		Quantity:   5,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	resp, err := env.svc.RecordMovement(context.Background(), uuid.NewString(), RecordMovementRequest{
		ProductID:  env.drill.ID.String(),
		LocationID: env.warehouse.ID.String(),
		Type:       model.MovementPurchase,
		Quantity:   5,
		Note:       "opening stock",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.BalanceAfter)
	assert.Equal(t, model.ActionRecordMovement, env.audit.lastAction())
}

func TestCurrentBalanceReadsLatestPerLocation(t *testing.T) {
	env := newInventoryServiceEnv()
	env.append(t, model.MovementPurchase, 10)
	env.append(t, model.MovementSale, 4)

	balance, err := env.svc.CurrentBalance(context.Background(), env.drill.ID, env.warehouse.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, balance)

	// Unknown location reads as zero, not an error.
	balance, err = env.svc.CurrentBalance(context.Background(), env.drill.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestHistoryFiltersByLocation(t *testing.T) {
	env := newInventoryServiceEnv()
	shopFloor := env.catalog.addLocation("Shop Floor")
	env.append(t, model.MovementPurchase, 10)
	_, err := env.svc.AppendMovement(context.Background(), MovementInput{
		ProductID:  env.drill.ID,
		LocationID: shopFloor.ID,
		Type:       model.MovementPurchase,
		Quantity:   3,
	})
	require.NoError(t, err)

	all, total, err := env.svc.History(context.Background(), env.drill.ID, nil, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	scoped, total, err := env.svc.History(context.Background(), env.drill.ID, &shopFloor.ID, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, scoped, 1)
	assert.Equal(t, shopFloor.ID.String(), scoped[0].LocationID)
}
