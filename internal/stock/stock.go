// Package stock projects the three heterogeneous listing kinds
// (marketplace products, donations, exchange proposals) into one
// normalized item shape used by the query engine and bulk operations.
package stock

// Kind identifies which source collection an item came from.
type Kind string

const (
	KindProduct  Kind = "product"
	KindDonation Kind = "donation"
	KindExchange Kind = "exchange"
)

// Kinds returns every source kind.
func Kinds() []Kind { return []Kind{KindProduct, KindDonation, KindExchange} }

// OwnerKind tags the Owner variant.
type OwnerKind string

const (
	OwnerUser OwnerKind = "user"
	OwnerShop OwnerKind = "shop"
)

// Owner is a tagged variant: a listing belongs to either a user or a
// shop, never both and never neither.
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   string    `json:"id"`
	Name string    `json:"name"`
}

func UserOwner(id, name string) Owner { return Owner{Kind: OwnerUser, ID: id, Name: name} }
func ShopOwner(id, name string) Owner { return Owner{Kind: OwnerShop, ID: id, Name: name} }

// Product is a raw marketplace product record as served by the store.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image,omitempty"`
	Category    string `json:"category,omitempty"`
	Owner       Owner  `json:"owner"`
	Quantity    int    `json:"quantity"`
	PriceCents  *int64 `json:"priceCents,omitempty"`
	IsPublished bool   `json:"isPublished"`
	IsBlocked   bool   `json:"isBlocked"`
	UpdatedAt   int64  `json:"updatedAt"`
}

// Donation is a raw donation offer. Donations are single-unit.
type Donation struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image,omitempty"`
	Category    string `json:"category,omitempty"`
	Owner       Owner  `json:"owner"`
	IsPublished bool   `json:"isPublished"`
	IsBlocked   bool   `json:"isBlocked"`
	UpdatedAt   int64  `json:"updatedAt"`
}

// Exchange is a raw exchange proposal. Exchanges are single-unit and
// have no block flag in the source schema.
type Exchange struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image,omitempty"`
	Category    string `json:"category,omitempty"`
	Owner       Owner  `json:"owner"`
	IsPublished bool   `json:"isPublished"`
	UpdatedAt   int64  `json:"updatedAt"`
}

// Source is the reference back to the original entity an item was
// projected from. Writes never go through it; mutation uses the
// kind-specific store endpoints.
type Source interface {
	sourceKind() Kind
}

func (*Product) sourceKind() Kind  { return KindProduct }
func (*Donation) sourceKind() Kind { return KindDonation }
func (*Exchange) sourceKind() Kind { return KindExchange }

// State classifies an item for inventory display. It is derived from
// quantity and availability, never stored.
type State string

const (
	StateAvailable   State = "available"
	StateLimited     State = "limited"
	StateExhausted   State = "exhausted"
	StateUnavailable State = "unavailable"
)

// States returns every stock state.
func States() []State {
	return []State{StateAvailable, StateLimited, StateExhausted, StateUnavailable}
}

// Label returns the display label used in search and export.
func (s State) Label() string {
	switch s {
	case StateAvailable:
		return "Available"
	case StateLimited:
		return "Limited"
	case StateExhausted:
		return "Exhausted"
	case StateUnavailable:
		return "Unavailable"
	}
	return string(s)
}

// limitedThreshold is the largest quantity still reported as limited.
const limitedThreshold = 10

// Item is the canonical projection over products, donations and
// exchanges. Source is in-process only and not persisted in the cache.
type Item struct {
	ID         string `json:"id"`
	Kind       Kind   `json:"kind"`
	Name       string `json:"name"`
	Image      string `json:"image,omitempty"`
	Category   string `json:"category"`
	Quantity   int    `json:"quantity"`
	PriceCents *int64 `json:"priceCents,omitempty"`
	Available  bool   `json:"available"`
	UpdatedAt  int64  `json:"updatedAt"`
	Owner      Owner  `json:"owner"`
	Source     Source `json:"-"`
}

// State derives the stock classification. Quantity zero always wins
// over the availability flag.
func (it Item) State() State {
	switch {
	case it.Quantity == 0:
		return StateExhausted
	case !it.Available:
		return StateUnavailable
	case it.Quantity <= limitedThreshold:
		return StateLimited
	}
	return StateAvailable
}
