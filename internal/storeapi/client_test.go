package storeapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"stockops/internal/status"
	"stockops/internal/stock"
)

func TestUpdateOrderStatus_RequestShape(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody statusUpdate
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	if err := c.UpdateOrderStatus(context.Background(), "ord-1", status.Pending, status.Confirmed); err != nil {
		t.Fatalf("update: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/orders/ord-1/status" {
		t.Fatalf("request %s %s, want POST /orders/ord-1/status", gotMethod, gotPath)
	}
	if gotBody.Status != "confirmed" || gotBody.Expect != "pending" {
		t.Fatalf("body %+v, want status=confirmed expect=pending", gotBody)
	}
}

func TestUpdateOrderStatus_ErrorMapping(t *testing.T) {
	cases := []struct {
		code int
		want error
	}{
		{http.StatusUnauthorized, ErrAuthExpired},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrConflict},
		{http.StatusInternalServerError, ErrTransient},
		{http.StatusBadGateway, ErrTransient},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.code)
		}))
		c := New(srv.URL, nil)
		err := c.UpdateOrderStatus(context.Background(), "o1", status.Pending, status.Confirmed)
		if !errors.Is(err, tc.want) {
			t.Fatalf("code %d: got %v, want %v", tc.code, err, tc.want)
		}
		srv.Close()
	}
}

func TestFetchSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products":
			writeJSON(w, []stock.Product{{ID: "p1", Name: "Lamp", Quantity: 2, IsPublished: true}})
		case "/donations":
			writeJSON(w, []stock.Donation{{ID: "d1", Name: "Books", IsPublished: true}})
		case "/exchanges":
			writeJSON(w, []stock.Exchange{{ID: "e1", Name: "Bike", IsPublished: true}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	ctx := context.Background()
	products, err := c.FetchProducts(ctx)
	if err != nil || len(products) != 1 || products[0].ID != "p1" {
		t.Fatalf("products: %v %v", products, err)
	}
	donations, err := c.FetchDonations(ctx)
	if err != nil || len(donations) != 1 {
		t.Fatalf("donations: %v %v", donations, err)
	}
	exchanges, err := c.FetchExchanges(ctx)
	if err != nil || len(exchanges) != 1 {
		t.Fatalf("exchanges: %v %v", exchanges, err)
	}
}

func TestFetchOrder_RejectsUnknownStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"id":     "o1",
			"events": []map[string]any{{"status": "teleported", "at": 1}},
		})
	}))
	defer srv.Close()

	if _, err := New(srv.URL, nil).FetchOrder(context.Background(), "o1"); err == nil {
		t.Fatal("corrupt status must not pass the decode boundary")
	}
}

func TestListingEndpoints(t *testing.T) {
	type call struct{ method, path string }
	var calls []call
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{r.Method, r.URL.Path})
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	ctx := context.Background()
	if err := c.SetPublished(ctx, stock.KindProduct, "p1", false); err != nil {
		t.Fatalf("set published: %v", err)
	}
	if err := c.DeleteListing(ctx, stock.KindDonation, "d1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	want := []call{
		{http.MethodPatch, "/listings/product/p1"},
		{http.MethodDelete, "/listings/donation/d1"},
	}
	for i, w := range want {
		if calls[i] != w {
			t.Fatalf("call %d = %+v, want %+v", i, calls[i], w)
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
