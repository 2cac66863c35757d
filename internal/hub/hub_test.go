package hub

import "testing"

func client(id string, sub Subscription) *Client {
	c := &Client{ID: id, Send: make(chan []byte, 4)}
	c.Subscription = sub
	return c
}

func received(c *Client) bool {
	select {
	case <-c.Send:
		return true
	default:
		return false
	}
}

func TestBroadcastFilters(t *testing.T) {
	h := New()
	staff := client("staff", Subscription{BusinessID: "b1"})
	customer := client("customer", Subscription{EntryID: "e1"})
	otherStaff := client("other", Subscription{BusinessID: "b2"})
	idle := client("idle", Subscription{})
	for _, c := range []*Client{staff, customer, otherStaff, idle} {
		h.Register(c)
	}

	h.Broadcast([]byte("x"), Subscription{BusinessID: "b1", EntryID: "e1"})

	if !received(staff) {
		t.Fatal("business subscriber must receive its business events")
	}
	if !received(customer) {
		t.Fatal("entry subscriber must receive its entry events")
	}
	if received(otherStaff) {
		t.Fatal("other business must not receive the event")
	}
	if received(idle) {
		t.Fatal("unsubscribed client must not receive anything")
	}
}

func TestBroadcastEntryOnlyMeta(t *testing.T) {
	h := New()
	staff := client("staff", Subscription{BusinessID: "b1"})
	customer := client("customer", Subscription{EntryID: "e1"})
	h.Register(staff)
	h.Register(customer)

	// Recalculated figures carry entry-only meta and bypass staff.
	h.Broadcast([]byte("x"), Subscription{EntryID: "e1"})

	if received(staff) {
		t.Fatal("entry-only message must not reach business subscribers")
	}
	if !received(customer) {
		t.Fatal("entry subscriber must receive entry-only messages")
	}
}

func TestBroadcastDropsOnFullChannel(t *testing.T) {
	h := New()
	slow := &Client{ID: "slow", Send: make(chan []byte, 1), Subscription: Subscription{BusinessID: "b1"}}
	h.Register(slow)

	h.Broadcast([]byte("one"), Subscription{BusinessID: "b1"})
	// A full channel must not block the broadcast loop.
	h.Broadcast([]byte("two"), Subscription{BusinessID: "b1"})

	if got := <-slow.Send; string(got) != "one" {
		t.Fatalf("expected first message, got %q", got)
	}
	if received(slow) {
		t.Fatal("second message should have been dropped")
	}
}

func TestUpdateSubscription(t *testing.T) {
	h := New()
	c := client("c", Subscription{})
	h.Register(c)

	h.Broadcast([]byte("x"), Subscription{BusinessID: "b1"})
	if received(c) {
		t.Fatal("client without a subscription must not receive events")
	}

	h.UpdateSubscription(c, Subscription{BusinessID: "b1"})
	h.Broadcast([]byte("x"), Subscription{BusinessID: "b1"})
	if !received(c) {
		t.Fatal("client must receive events after subscribing")
	}
}

func TestParseSubscribe(t *testing.T) {
	msg, ok := ParseSubscribe([]byte(`{"action":"subscribe","business_id":"b1"}`))
	if !ok || msg.BusinessID != "b1" {
		t.Fatalf("parse subscribe failed: %+v ok=%v", msg, ok)
	}
	if _, ok := ParseSubscribe([]byte(`{"action":"ping"}`)); ok {
		t.Fatal("unknown action must not parse")
	}
	if _, ok := ParseSubscribe([]byte(`not json`)); ok {
		t.Fatal("invalid JSON must not parse")
	}
}
