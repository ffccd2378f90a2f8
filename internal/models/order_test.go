package models

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"anonymous to assigned", OrderAnonymous, OrderAssigned, true},
		{"anonymous to expired", OrderAnonymous, OrderExpired, true},
		{"anonymous to pending", OrderAnonymous, OrderPending, false},
		{"anonymous to paid", OrderAnonymous, OrderPaid, false},
		{"assigned to pending", OrderAssigned, OrderPending, true},
		{"assigned to cancelled", OrderAssigned, OrderCancelled, true},
		{"assigned to expired", OrderAssigned, OrderExpired, true},
		{"assigned to paid", OrderAssigned, OrderPaid, false},
		{"assigned to anonymous", OrderAssigned, OrderAnonymous, false},
		{"pending to paid", OrderPending, OrderPaid, true},
		{"pending to cancelled", OrderPending, OrderCancelled, true},
		{"pending to expired", OrderPending, OrderExpired, true},
		{"pending to assigned", OrderPending, OrderAssigned, false},
		{"paid is terminal", OrderPaid, OrderCancelled, false},
		{"paid never expires", OrderPaid, OrderExpired, false},
		{"cancelled is terminal", OrderCancelled, OrderPaid, false},
		{"expired is terminal", OrderExpired, OrderAssigned, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestValidOrderStatus(t *testing.T) {
	for _, status := range []OrderStatus{OrderAnonymous, OrderAssigned, OrderPending, OrderPaid, OrderCancelled, OrderExpired} {
		if !ValidOrderStatus(status) {
			t.Errorf("ValidOrderStatus(%s) = false, want true", status)
		}
	}
	if ValidOrderStatus("refunded") {
		t.Error("ValidOrderStatus(refunded) = true, want false")
	}
}

func TestOrderPredicates(t *testing.T) {
	tests := []struct {
		status    OrderStatus
		mutable   bool
		open      bool
		expirable bool
	}{
		{OrderAnonymous, true, false, true},
		{OrderAssigned, true, true, true},
		{OrderPending, false, false, false},
		{OrderPaid, false, false, false},
		{OrderCancelled, false, false, true},
		{OrderExpired, false, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			order := &Order{Status: tt.status}
			if got := order.IsMutable(); got != tt.mutable {
				t.Errorf("IsMutable() = %v, want %v", got, tt.mutable)
			}
			if got := order.IsOpen(); got != tt.open {
				t.Errorf("IsOpen() = %v, want %v", got, tt.open)
			}
			if got := order.IsExpirable(); got != tt.expirable {
				t.Errorf("IsExpirable() = %v, want %v", got, tt.expirable)
			}
		})
	}
}

func TestOrderTotal(t *testing.T) {
	deadline := time.Now().Add(time.Hour)
	standard := &TicketType{ID: 1, Name: "Standard", Price: 5000, Deadline: deadline}
	discount := &TicketOption{ID: 1, Name: "Early Bird", PriceDelta: -1000}
	addon := &TicketOption{ID: 2, Name: "T-Shirt", PriceDelta: 1500}

	order := &Order{
		Status: OrderAssigned,
		Tickets: []*Ticket{
			{Type: standard},
			{Type: standard, Options: []*TicketOption{discount}},
			{Type: standard, Options: []*TicketOption{addon, discount}},
		},
	}

	if got := order.Total(); got != 14500 {
		t.Errorf("Total() = %d, want 14500", got)
	}

	empty := &Order{Status: OrderAnonymous}
	if got := empty.Total(); got != 0 {
		t.Errorf("Total() on empty order = %d, want 0", got)
	}
}
