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

type commissionServiceEnv struct {
	svc      CommissionService
	rules    *fakeCommissionRepo
	catalog  *fakeCatalogRepo
	audit    *fakeAuditRepo
	supplier *model.Supplier
}

func newCommissionServiceEnv() *commissionServiceEnv {
	rules := &fakeCommissionRepo{}
	catalog := newFakeCatalogRepo()
	audit := &fakeAuditRepo{}
	env := &commissionServiceEnv{
		svc:      NewCommissionService(rules, catalog, audit, fakeTxManager{}),
		rules:    rules,
		catalog:  catalog,
		audit:    audit,
		supplier: catalog.addSupplier("Makino Tools"),
	}
	catalog.addCategory("Power Tools")
	catalog.addCategory("Fasteners")
	return env
}

func (e *commissionServiceEnv) addRule(t *testing.T, category, rate string) CommissionRuleResponse {
	t.Helper()
	resp, err := e.svc.AddRule(context.Background(), uuid.NewString(), CreateCommissionRuleRequest{
		SupplierID: e.supplier.ID.String(),
		Category:   category,
		Rate:       rate,
	})
	require.NoError(t, err)
	return resp
}

func TestResolveExactCategoryBeatsAll(t *testing.T) {
	env := newCommissionServiceEnv()
	env.addRule(t, "ALL", "5")
	exact := env.addRule(t, "Power Tools", "7.5")

	resp, err := env.svc.Resolve(context.Background(), env.supplier.ID, "Power Tools")
	require.NoError(t, err)
	assert.Equal(t, "7.50", resp.Rate)
	assert.Equal(t, ResolveSourceCategory, resp.Source)
	assert.Equal(t, exact.ID, resp.RuleID)
}

func TestResolveFallsBackToAllRule(t *testing.T) {
	env := newCommissionServiceEnv()
	env.addRule(t, "ALL", "5")

	resp, err := env.svc.Resolve(context.Background(), env.supplier.ID, "Fasteners")
	require.NoError(t, err)
	assert.Equal(t, "5.00", resp.Rate)
	assert.Equal(t, ResolveSourceAll, resp.Source)
}

func TestResolveNoRuleIsZeroNotError(t *testing.T) {
	env := newCommissionServiceEnv()

	resp, err := env.svc.Resolve(context.Background(), env.supplier.ID, "Fasteners")
	require.NoError(t, err)
	assert.Equal(t, "0.00", resp.Rate)
	assert.Equal(t, ResolveSourceNone, resp.Source)
	assert.Empty(t, resp.RuleID)
}

func TestResolveSubCategoriesDoNotInherit(t *testing.T) {
	env := newCommissionServiceEnv()
	env.addRule(t, "Power Tools", "7.5")

	// No traversal: a category without its own rule and without an ALL rule
	// resolves to zero even when a sibling rule exists.
	resp, err := env.svc.Resolve(context.Background(), env.supplier.ID, "Fasteners")
	require.NoError(t, err)
	assert.Equal(t, "0.00", resp.Rate)
	assert.Equal(t, ResolveSourceNone, resp.Source)
}

func TestAddRuleRejectsDuplicatePair(t *testing.T) {
	env := newCommissionServiceEnv()
	env.addRule(t, "Power Tools", "5")

	_, err := env.svc.AddRule(context.Background(), uuid.NewString(), CreateCommissionRuleRequest{
		SupplierID: env.supplier.ID.String(),
		Category:   "Power Tools",
		Rate:       "6",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindDuplicateRule, apperr.KindOf(err))

	// The first rule stays in force.
	resp, err := env.svc.Resolve(context.Background(), env.supplier.ID, "Power Tools")
	require.NoError(t, err)
	assert.Equal(t, "5.00", resp.Rate)
}

func TestAddRuleAllowsOneAllRulePerSupplier(t *testing.T) {
	env := newCommissionServiceEnv()
	env.addRule(t, "ALL", "5")

	_, err := env.svc.AddRule(context.Background(), uuid.NewString(), CreateCommissionRuleRequest{
		SupplierID: env.supplier.ID.String(),
		Category:   "ALL",
		Rate:       "10",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindDuplicateRule, apperr.KindOf(err))
}

func TestAddRuleValidatesRate(t *testing.T) {
	env := newCommissionServiceEnv()

	for _, rate := range []string{"-1", "100.01", "abc"} {
		_, err := env.svc.AddRule(context.Background(), uuid.NewString(), CreateCommissionRuleRequest{
			SupplierID: env.supplier.ID.String(),
			Category:   "ALL",
			Rate:       rate,
		})
		require.Error(t, err, "rate %q", rate)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}
}

func TestAddRuleRequiresExistingSupplierAndCategory(t *testing.T) {
	env := newCommissionServiceEnv()

	_, err := env.svc.AddRule(context.Background(), uuid.NewString(), CreateCommissionRuleRequest{
		SupplierID: uuid.NewString(),
		Category:   "ALL",
		Rate:       "5",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = env.svc.AddRule(context.Background(), uuid.NewString(), CreateCommissionRuleRequest{
		SupplierID: env.supplier.ID.String(),
		Category:   "Plumbing",
		Rate:       "5",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteRuleRemovesResolution(t *testing.T) {
	env := newCommissionServiceEnv()
	rule := env.addRule(t, "Power Tools", "7.5")

	require.NoError(t, env.svc.DeleteRule(context.Background(), uuid.NewString(), rule.ID))
	assert.Equal(t, model.ActionDeleteCommission, env.audit.lastAction())

	resp, err := env.svc.Resolve(context.Background(), env.supplier.ID, "Power Tools")
	require.NoError(t, err)
	assert.Equal(t, ResolveSourceNone, resp.Source)

	err = env.svc.DeleteRule(context.Background(), uuid.NewString(), rule.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
