package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/canteen/internal/catalog"
	"github.com/Skotchmaster/canteen/internal/models"
)

func TestOrderService_CreateOrder_SnapshotsPricesAndTotal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.createUser(t, "u1@example.com")

	lines := []models.LineItem{
		{ItemID: 1, Quantity: 2},
		{ItemID: 4, Quantity: 1},
		{ItemID: 1, Quantity: 1},
	}

	order, err := env.orders.CreateOrder(ctx, u.ID, lines)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, order.ID)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, u.ID, order.UserID)
	require.Len(t, order.Items, len(lines))
	assert.EqualValues(t, 4*249, order.Total)
	assert.Equal(t, order.Total, order.ItemsTotal())
	for _, it := range order.Items {
		assert.Equal(t, order.ID, it.OrderID)
		assert.EqualValues(t, 249, it.UnitPrice)
	}

	got, err := env.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, len(lines))
	assert.Equal(t, order.Total, got.ItemsTotal())
	assert.Nil(t, got.Payment)

	assert.Equal(t, []string{"order_created"}, env.events.types())
	assert.Equal(t, TopicOrderEvents, env.events.events[0].Topic)
	assert.Equal(t, order.ID.String(), env.events.events[0].Key)
}

func TestOrderService_CreateOrder_Validation(t *testing.T) {
	env := newTestEnv(t)
	u := env.createUser(t, "u1@example.com")

	tests := []struct {
		name  string
		lines []models.LineItem
	}{
		{name: "nil lines", lines: nil},
		{name: "empty lines", lines: []models.LineItem{}},
		{name: "zero quantity", lines: []models.LineItem{{ItemID: 1, Quantity: 0}}},
		{name: "negative quantity", lines: []models.LineItem{{ItemID: 1, Quantity: -2}}},
		{name: "unknown item", lines: []models.LineItem{{ItemID: 1, Quantity: 1}, {ItemID: 99, Quantity: 1}}},
		{name: "quantity over limit", lines: []models.LineItem{{ItemID: 1, Quantity: models.MaxLineQuantity + 1}}},
		{name: "quantity overflowing total", lines: []models.LineItem{{ItemID: 1, Quantity: 40_000_000_000_000_000}}},
		{name: "too many lines", lines: make([]models.LineItem, models.MaxOrderLines+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := env.orders.CreateOrder(context.Background(), u.ID, tt.lines)
			require.Error(t, err)
			assert.Nil(t, order)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	assert.Zero(t, env.countRows(t, &models.Order{}))
	assert.Zero(t, env.countRows(t, &models.OrderItem{}))
}

func TestOrderService_CreateOrder_LargestOrderKeepsPositiveTotal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.createUser(t, "u1@example.com")

	lines := make([]models.LineItem, models.MaxOrderLines)
	for i := range lines {
		lines[i] = models.LineItem{ItemID: 1, Quantity: models.MaxLineQuantity}
	}

	order, err := env.orders.CreateOrder(ctx, u.ID, lines)
	require.NoError(t, err)
	assert.EqualValues(t, int64(249)*models.MaxLineQuantity*models.MaxOrderLines, order.Total)
	assert.Equal(t, order.Total, order.ItemsTotal())

	p, err := env.payments.ProcessPayment(ctx, order.ID, order.Total, "card")
	require.NoError(t, err)
	assert.Positive(t, p.Amount)
}

func TestOrderService_CreateOrder_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.orders.CreateOrder(context.Background(), uuid.New(), []models.LineItem{{ItemID: 1, Quantity: 1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Zero(t, env.countRows(t, &models.Order{}))
	assert.Zero(t, env.countRows(t, &models.OrderItem{}))
	assert.Empty(t, env.events.types())
}

func TestOrderService_UnitPriceSurvivesCatalogChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.createUser(t, "u1@example.com")

	order, err := env.orders.CreateOrder(ctx, u.ID, []models.LineItem{{ItemID: 1, Quantity: 2}})
	require.NoError(t, err)

	menu := catalog.DefaultMenu()
	menu[0].Price = 300
	env.orders.Catalog = catalog.New(menu)

	got, err := env.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 249, got.Items[0].UnitPrice)
	assert.EqualValues(t, 498, got.ItemsTotal())

	next, err := env.orders.CreateOrder(ctx, u.ID, []models.LineItem{{ItemID: 1, Quantity: 2}})
	require.NoError(t, err)
	assert.EqualValues(t, 600, next.Total)
}

func TestOrderService_GetOrder_NotFound(t *testing.T) {
	env := newTestEnv(t)

	order, err := env.orders.GetOrder(context.Background(), uuid.New())
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_ListOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u1 := env.createUser(t, "u1@example.com")
	u2 := env.createUser(t, "u2@example.com")

	for i := 0; i < 3; i++ {
		_, err := env.orders.CreateOrder(ctx, u1.ID, []models.LineItem{{ItemID: 3, Quantity: i + 1}})
		require.NoError(t, err)
	}
	_, err := env.orders.CreateOrder(ctx, u2.ID, []models.LineItem{{ItemID: 5, Quantity: 1}})
	require.NoError(t, err)

	total, all, err := env.orders.ListOrders(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, all, 4)
	for _, o := range all {
		assert.NotEmpty(t, o.Items)
	}

	total, page, err := env.orders.ListOrders(ctx, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, page, 2)

	total, mine, err := env.orders.ListOrdersByUser(ctx, u1.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	for _, o := range mine {
		assert.Equal(t, u1.ID, o.UserID)
	}

	total, none, err := env.orders.ListOrdersByUser(ctx, uuid.New(), 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, none)
}

// orderInStatus drives a fresh order to the requested status through the
// public operations.
func orderInStatus(t *testing.T, env *testEnv, userID uuid.UUID, status models.OrderStatus) *models.Order {
	t.Helper()
	ctx := context.Background()

	order, err := env.orders.CreateOrder(ctx, userID, []models.LineItem{{ItemID: 2, Quantity: 1}})
	require.NoError(t, err)

	switch status {
	case models.OrderStatusPending:
	case models.OrderStatusCancelled:
		_, err = env.orders.UpdateStatus(ctx, order.ID, string(models.OrderStatusCancelled))
		require.NoError(t, err)
	case models.OrderStatusPaid, models.OrderStatusFulfilled:
		_, err = env.payments.ProcessPayment(ctx, order.ID, order.Total, "card")
		require.NoError(t, err)
		if status == models.OrderStatusFulfilled {
			_, err = env.orders.UpdateStatus(ctx, order.ID, string(models.OrderStatusFulfilled))
			require.NoError(t, err)
		}
	default:
		t.Fatalf("unexpected status %s", status)
	}

	got, err := env.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, status, got.Status)
	return got
}

func TestOrderService_UpdateStatus_StateMachine(t *testing.T) {
	env := newTestEnv(t)
	u := env.createUser(t, "u1@example.com")

	all := []models.OrderStatus{
		models.OrderStatusPending,
		models.OrderStatusPaid,
		models.OrderStatusFulfilled,
		models.OrderStatusCancelled,
	}

	for _, from := range all {
		for _, to := range all {
			from, to := from, to
			t.Run(string(from)+"_to_"+string(to), func(t *testing.T) {
				order := orderInStatus(t, env, u.ID, from)

				updated, err := env.orders.UpdateStatus(context.Background(), order.ID, string(to))

				switch {
				case from == models.OrderStatusPending && to == models.OrderStatusPaid:
					assert.ErrorIs(t, err, ErrConflict)
				case from.CanTransitionTo(to):
					require.NoError(t, err)
					assert.Equal(t, to, updated.Status)
					return
				default:
					assert.ErrorIs(t, err, ErrInvalidTransition)
				}

				got, err := env.orders.GetOrder(context.Background(), order.ID)
				require.NoError(t, err)
				assert.Equal(t, from, got.Status)
			})
		}
	}
}

func TestOrderService_UpdateStatus_StampsUpdatedAt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.createUser(t, "u1@example.com")

	order, err := env.orders.CreateOrder(ctx, u.ID, []models.LineItem{{ItemID: 1, Quantity: 1}})
	require.NoError(t, err)

	before := time.Now().UTC().Add(-time.Second)
	updated, err := env.orders.UpdateStatus(ctx, order.ID, " Cancelled ")
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCancelled, updated.Status)
	assert.True(t, updated.UpdatedAt.After(before))
	assert.Contains(t, env.events.types(), "order_status_changed")
}

func TestOrderService_UpdateStatus_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.createUser(t, "u1@example.com")
	order := orderInStatus(t, env, u.ID, models.OrderStatusPending)

	_, err := env.orders.UpdateStatus(ctx, order.ID, "shipped")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.orders.UpdateStatus(ctx, uuid.New(), "cancelled")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_DeleteOrder_CascadesItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.createUser(t, "u1@example.com")

	keep, err := env.orders.CreateOrder(ctx, u.ID, []models.LineItem{{ItemID: 1, Quantity: 1}})
	require.NoError(t, err)
	order, err := env.orders.CreateOrder(ctx, u.ID, []models.LineItem{{ItemID: 1, Quantity: 1}, {ItemID: 2, Quantity: 3}})
	require.NoError(t, err)

	require.NoError(t, env.orders.DeleteOrder(ctx, order.ID))

	_, err = env.orders.GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 1, env.countRows(t, &models.OrderItem{}))

	_, err = env.orders.GetOrder(ctx, keep.ID)
	require.NoError(t, err)

	err = env.orders.DeleteOrder(ctx, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, env.events.types(), "order_deleted")
}

func TestOrderService_DeleteOrder_WithPaymentConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.createUser(t, "u1@example.com")

	for _, status := range []models.OrderStatus{models.OrderStatusPaid, models.OrderStatusFulfilled} {
		order := orderInStatus(t, env, u.ID, status)

		err := env.orders.DeleteOrder(ctx, order.ID)
		assert.ErrorIs(t, err, ErrConflict)

		got, err := env.orders.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
		require.NotNil(t, got.Payment)
		assert.Len(t, got.Items, 1)
	}
}

func TestOrderService_DeleteOrder_CancelledWithoutPayment(t *testing.T) {
	env := newTestEnv(t)
	u := env.createUser(t, "u1@example.com")
	order := orderInStatus(t, env, u.ID, models.OrderStatusCancelled)

	require.NoError(t, env.orders.DeleteOrder(context.Background(), order.ID))
}
