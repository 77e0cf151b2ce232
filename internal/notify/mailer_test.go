package notify

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bloomstead/flowershop/internal/domain/order"
)

type mockOrderRepo struct {
	order *order.Order
	err   error
}

func (m *mockOrderRepo) Create(_ context.Context, _ *order.Order) error { return nil }

func (m *mockOrderRepo) GetByID(_ context.Context, _ string) (*order.Order, error) {
	return m.order, m.err
}

type mockMailer struct {
	to, subject, body string
	err               error
}

func (m *mockMailer) Send(_ context.Context, to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return m.err
}

func testOrder() *order.Order {
	return &order.Order{
		ID:        "3f1c2a88-0000-4000-8000-000000000000",
		FirstName: "Anna",
		Email:     "anna@example.com",
		Discount:  20,
		Items: []order.Item{
			{ProductID: "roses", ProductName: "Dozen red roses", Price: decimal.RequireFromString("25.00"), Quantity: 2},
			{ProductID: "tulips", ProductName: "Tulip bouquet", Price: decimal.RequireFromString("15.00"), Quantity: 1},
		},
	}
}

func TestConfirmationMail(t *testing.T) {
	subject, body := ConfirmationMail(testOrder())

	assert.Equal(t, "Your flower shop order 3f1c2a88", subject)
	assert.Contains(t, body, "Dear Anna,")
	assert.Contains(t, body, "2 x Dozen red roses @ 25.00")
	assert.Contains(t, body, "1 x Tulip bouquet @ 15.00")
	assert.Contains(t, body, "Subtotal: 65.00")
	assert.Contains(t, body, "Discount (20%): -13.00")
	assert.Contains(t, body, "Total: 52.00")
}

func TestConfirmationMail_NoDiscountLine(t *testing.T) {
	o := testOrder()
	o.Discount = 0

	_, body := ConfirmationMail(o)

	assert.NotContains(t, body, "Discount")
	assert.Contains(t, body, "Total: 65.00")
}

func TestOrderMailer_HandleOrderCreated(t *testing.T) {
	mailer := &mockMailer{}
	n := NewOrderMailer(&mockOrderRepo{order: testOrder()}, mailer, zap.NewNop())

	err := n.HandleOrderCreated(context.Background(), OrderCreatedEvent{OrderID: "3f1c2a88"})
	require.NoError(t, err)

	assert.Equal(t, "anna@example.com", mailer.to)
	assert.Contains(t, mailer.body, "Total: 52.00")
}

func TestOrderMailer_MissingOrder(t *testing.T) {
	n := NewOrderMailer(&mockOrderRepo{err: order.ErrNotFound}, &mockMailer{}, zap.NewNop())

	err := n.HandleOrderCreated(context.Background(), OrderCreatedEvent{OrderID: "gone"})
	assert.ErrorIs(t, err, order.ErrNotFound)
}
