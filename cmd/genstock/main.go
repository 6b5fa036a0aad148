package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"stockops/internal/status"
	"stockops/internal/stock"
)

// genstock generates product/donation/exchange fixtures. With -serve it
// also acts as a fake remote store so stockd can run without the real
// marketplace API.
func main() {
	var (
		count  int
		outDir string
		serve  string
	)
	flag.IntVar(&count, "count", 50, "number of listings per kind")
	flag.StringVar(&outDir, "output", "./fixtures", "output directory for JSON fixtures")
	flag.StringVar(&serve, "serve", "", "serve the generated data as a fake store on this address (e.g. :9090)")
	flag.Parse()

	rand.Seed(time.Now().UnixNano())
	products, donations, exchanges := generate(count)

	if serve != "" {
		log.Printf("fake store listening on %s (%d listings per kind)", serve, count)
		log.Fatal(http.ListenAndServe(serve, newFakeStore(products, donations, exchanges)))
	}

	if err := writeFixtures(outDir, products, donations, exchanges); err != nil {
		log.Fatalf("generation failed: %v", err)
	}
	log.Printf("generated %d listings per kind to %s", count, outDir)
}

var categories = []string{"home", "culture", "sport", "garden", ""}

func generate(count int) ([]stock.Product, []stock.Donation, []stock.Exchange) {
	base := time.Now().UTC().Unix()
	products := make([]stock.Product, 0, count)
	donations := make([]stock.Donation, 0, count)
	exchanges := make([]stock.Exchange, 0, count)
	for i := 0; i < count; i++ {
		cents := int64(500 + rand.Intn(19500))
		products = append(products, stock.Product{
			ID:          fmt.Sprintf("prd-%03d", i+1),
			Name:        fmt.Sprintf("Product %03d", i+1),
			Category:    categories[rand.Intn(len(categories))],
			Owner:       stock.ShopOwner(fmt.Sprintf("shop-%d", i%5+1), fmt.Sprintf("Shop %d", i%5+1)),
			Quantity:    rand.Intn(25),
			PriceCents:  &cents,
			IsPublished: rand.Intn(10) > 1,
			IsBlocked:   rand.Intn(20) == 0,
			UpdatedAt:   base - int64(rand.Intn(86400)),
		})
		donations = append(donations, stock.Donation{
			ID:          fmt.Sprintf("don-%03d", i+1),
			Name:        fmt.Sprintf("Donation %03d", i+1),
			Category:    categories[rand.Intn(len(categories))],
			Owner:       stock.UserOwner(fmt.Sprintf("user-%d", i%20+1), fmt.Sprintf("User %d", i%20+1)),
			IsPublished: rand.Intn(10) > 1,
			IsBlocked:   rand.Intn(20) == 0,
			UpdatedAt:   base - int64(rand.Intn(86400)),
		})
		exchanges = append(exchanges, stock.Exchange{
			ID:          fmt.Sprintf("exc-%03d", i+1),
			Name:        fmt.Sprintf("Exchange %03d", i+1),
			Category:    categories[rand.Intn(len(categories))],
			Owner:       stock.UserOwner(fmt.Sprintf("user-%d", i%20+1), fmt.Sprintf("User %d", i%20+1)),
			IsPublished: rand.Intn(10) > 2,
			UpdatedAt:   base - int64(rand.Intn(86400)),
		})
	}
	return products, donations, exchanges
}

func writeFixtures(dir string, products []stock.Product, donations []stock.Donation, exchanges []stock.Exchange) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	for name, v := range map[string]any{
		"products.json":  products,
		"donations.json": donations,
		"exchanges.json": exchanges,
	} {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			f.Close()
			return fmt.Errorf("encode %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", name, err)
		}
	}
	return nil
}

// fakeStore implements just enough of the remote store for local runs:
// the three source collections, order status updates with conflict
// checking, and the per-listing bulk primitives.
type fakeStore struct {
	mu        sync.Mutex
	products  []stock.Product
	donations []stock.Donation
	exchanges []stock.Exchange
	orders    map[string]status.Status
}

func newFakeStore(products []stock.Product, donations []stock.Donation, exchanges []stock.Exchange) http.Handler {
	s := &fakeStore{
		products:  products,
		donations: donations,
		exchanges: exchanges,
		orders:    map[string]status.Status{"ord-1": status.Pending, "ord-2": status.Confirmed},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", func(w http.ResponseWriter, r *http.Request) { s.list(w, s.products) })
	mux.HandleFunc("GET /donations", func(w http.ResponseWriter, r *http.Request) { s.list(w, s.donations) })
	mux.HandleFunc("GET /exchanges", func(w http.ResponseWriter, r *http.Request) { s.list(w, s.exchanges) })
	mux.HandleFunc("POST /orders/{id}/status", s.updateStatus)
	mux.HandleFunc("GET /orders/{id}", s.getOrder)
	mux.HandleFunc("PATCH /listings/{kind}/{id}", s.touchListing)
	mux.HandleFunc("DELETE /listings/{kind}/{id}", s.touchListing)
	return mux
}

func (s *fakeStore) list(w http.ResponseWriter, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *fakeStore) getOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	cur, ok := s.orders[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     id,
		"events": []map[string]any{{"status": string(cur), "at": time.Now().Unix()}},
	})
}

func (s *fakeStore) updateStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	cur, ok := s.orders[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var body struct {
		Status string `json:"status"`
		Expect string `json:"expect"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	target, err := status.Parse(body.Status)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if body.Expect != string(cur) {
		w.WriteHeader(http.StatusConflict)
		return
	}
	s.orders[id] = target
	w.WriteHeader(http.StatusOK)
}

func (s *fakeStore) touchListing(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	if !s.knownListing(id) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *fakeStore) knownListing(id string) bool {
	for _, p := range s.products {
		if p.ID == id {
			return true
		}
	}
	for _, d := range s.donations {
		if d.ID == id {
			return true
		}
	}
	for _, e := range s.exchanges {
		if e.ID == id {
			return true
		}
	}
	return false
}
