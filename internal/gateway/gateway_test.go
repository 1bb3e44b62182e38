package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCreateDecodesConfirmedEntity(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"objectId":"srv-1","price":10000}`))
	}))
	defer server.Close()

	c := New(server.URL, "secret", 5*time.Second)

	var out struct {
		ObjectID string `json:"objectId"`
	}
	err := c.Create(context.Background(), TableSales, map[string]interface{}{"price": 10000}, &out)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if out.ObjectID != "srv-1" {
		t.Errorf("expected srv-1, got %s", out.ObjectID)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("bearer token not sent: %q", gotAuth)
	}
	if gotPath != "/api/data/Sales" {
		t.Errorf("unexpected path: %s", gotPath)
	}
}

func TestErrorStatusBecomesRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"quantity must be positive"}`))
	}))
	defer server.Close()

	c := New(server.URL, "", 5*time.Second)

	err := c.Update(context.Background(), TableSales, "srv-1", map[string]interface{}{"quantity": -1}, nil)
	if err == nil {
		t.Fatal("expected rejection error")
	}

	rej, ok := AsRejection(err)
	if !ok {
		t.Fatalf("expected RejectionError, got %T: %v", err, err)
	}
	if rej.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("unexpected status: %d", rej.StatusCode)
	}
	if rej.Message() != "quantity must be positive" {
		t.Errorf("message not extracted: %q", rej.Message())
	}
	if IsUnreachable(err) {
		t.Error("rejection classified as unreachable")
	}
}

func TestTransportFailureIsUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listens any more

	c := New(server.URL, "", time.Second)

	err := c.Delete(context.Background(), TableSales, "srv-1")
	if err == nil {
		t.Fatal("expected transport failure")
	}
	if !IsUnreachable(err) {
		t.Errorf("transport failure not classified as unreachable: %v", err)
	}
	if _, ok := AsRejection(err); ok {
		t.Error("transport failure classified as rejection")
	}
}

func TestPingTreatsAnyResponseAsReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Even an auth failure proves the wire works.
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := New(server.URL, "", time.Second)
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed on a responding server: %v", err)
	}

	server.Close()
	if err := c.Ping(context.Background()); err == nil {
		t.Error("Ping succeeded against a dead server")
	}
}
