// Package property owns property listings: the adjacent CRUD entity that
// references a seller profile as owner. Listing deletion does not cascade
// from seller deletion; instead the registrar blocks seller removal while
// listings exist.
package property

import (
	"strings"
	"time"

	"propmarket/internal/seller"
	"propmarket/pkg/domain"
	dErrors "propmarket/pkg/domain-errors"
	"propmarket/pkg/strutil"
)

// Type classifies a listing.
type Type string

const (
	TypeResidential Type = "Residential"
	TypeCommercial  Type = "Commercial"
	TypeIndustrial  Type = "Industrial"
)

// ParseType validates a listing type.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.TrimSpace(s)); t {
	case TypeResidential, TypeCommercial, TypeIndustrial:
		return t, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "type must be one of Residential, Commercial, Industrial")
	}
}

func (t Type) String() string { return string(t) }

// Address is a listing's postal address.
type Address struct {
	House      string `json:"house"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

// Options are the boolean amenities of a listing.
type Options struct {
	ParkingSpot bool `json:"parking_spot"`
	Furnished   bool `json:"furnished"`
}

// Property is a listing owned by a seller.
type Property struct {
	ID            domain.PropertyID `json:"_id"`
	Title         string            `json:"title"`
	Type          Type              `json:"type"`
	Description   string            `json:"description"`
	Address       Address           `json:"address"`
	ForSale       bool              `json:"for_sale"`
	Price         int64             `json:"price"`
	DiscountPrice *int64            `json:"discount_price,omitempty"`
	Beds          *int              `json:"beds,omitempty"`
	Baths         *int              `json:"baths,omitempty"`
	Options       Options           `json:"options"`
	Images        []string          `json:"images"`
	SellerID      domain.AccountID  `json:"seller_id"`
	// Seller is the owner summary joined at read time; never persisted.
	Seller    *seller.Summary `json:"seller,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewPropertyInput carries the fields a create request may set. SellerID is
// always taken from the acting identity, never the payload.
type NewPropertyInput struct {
	Title         string   `json:"title"`
	Type          string   `json:"type"`
	Description   string   `json:"description"`
	Address       Address  `json:"address"`
	ForSale       *bool    `json:"for_sale"`
	Price         int64    `json:"price"`
	DiscountPrice *int64   `json:"discount_price"`
	Beds          *int     `json:"beds"`
	Baths         *int     `json:"baths"`
	Options       Options  `json:"options"`
	Images        []string `json:"images"`
}

// New constructs a Property owned by sellerID, validating invariants.
func New(in NewPropertyInput, sellerID domain.AccountID, now time.Time) (*Property, error) {
	var fields []dErrors.FieldError
	if strings.TrimSpace(in.Title) == "" {
		fields = append(fields, dErrors.FieldError{Field: "title", Message: "is required"})
	}
	typ, typeErr := ParseType(in.Type)
	if typeErr != nil {
		fields = append(fields, dErrors.FieldError{Field: "type", Message: "must be one of Residential, Commercial, Industrial"})
	}
	if strings.TrimSpace(in.Description) == "" {
		fields = append(fields, dErrors.FieldError{Field: "description", Message: "is required"})
	}
	if strings.TrimSpace(in.Address.House) == "" ||
		strings.TrimSpace(in.Address.Street) == "" ||
		strings.TrimSpace(in.Address.City) == "" ||
		strings.TrimSpace(in.Address.PostalCode) == "" {
		fields = append(fields, dErrors.FieldError{Field: "address", Message: "house, street, city and postal_code are required"})
	}
	if in.Price <= 0 {
		fields = append(fields, dErrors.FieldError{Field: "price", Message: "must be a positive number"})
	}
	if in.DiscountPrice != nil && (*in.DiscountPrice <= 0 || *in.DiscountPrice >= in.Price) {
		fields = append(fields, dErrors.FieldError{Field: "discount_price", Message: "must be positive and below price"})
	}
	images := strutil.DedupeAndTrim(in.Images)
	if len(images) == 0 {
		fields = append(fields, dErrors.FieldError{Field: "images", Message: "at least one is required"})
	}
	if len(fields) > 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid property").WithFields(fields...)
	}

	forSale := true
	if in.ForSale != nil {
		forSale = *in.ForSale
	}

	return &Property{
		ID:            domain.NewPropertyID(),
		Title:         strings.TrimSpace(in.Title),
		Type:          typ,
		Description:   strings.TrimSpace(in.Description),
		Address:       trimAddress(in.Address),
		ForSale:       forSale,
		Price:         in.Price,
		DiscountPrice: in.DiscountPrice,
		Beds:          in.Beds,
		Baths:         in.Baths,
		Options:       in.Options,
		Images:        images,
		SellerID:      sellerID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// UpdateInput carries a partial-field merge for a listing.
type UpdateInput struct {
	Title         *string   `json:"title"`
	Type          *string   `json:"type"`
	Description   *string   `json:"description"`
	Address       *Address  `json:"address"`
	ForSale       *bool     `json:"for_sale"`
	Price         *int64    `json:"price"`
	DiscountPrice *int64    `json:"discount_price"`
	Beds          *int      `json:"beds"`
	Baths         *int      `json:"baths"`
	Options       *Options  `json:"options"`
	Images        *[]string `json:"images"`
}

// Apply merges the update into the listing and revalidates invariants.
func (p *Property) Apply(in UpdateInput, now time.Time) error {
	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
	}
	if in.Type != nil {
		typ, err := ParseType(*in.Type)
		if err != nil {
			return err
		}
		p.Type = typ
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Address != nil {
		p.Address = trimAddress(*in.Address)
	}
	if in.ForSale != nil {
		p.ForSale = *in.ForSale
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.DiscountPrice != nil {
		p.DiscountPrice = in.DiscountPrice
	}
	if in.Beds != nil {
		p.Beds = in.Beds
	}
	if in.Baths != nil {
		p.Baths = in.Baths
	}
	if in.Options != nil {
		p.Options = *in.Options
	}
	if in.Images != nil {
		p.Images = strutil.DedupeAndTrim(*in.Images)
	}

	var fields []dErrors.FieldError
	if p.Title == "" {
		fields = append(fields, dErrors.FieldError{Field: "title", Message: "must not be empty"})
	}
	if p.Description == "" {
		fields = append(fields, dErrors.FieldError{Field: "description", Message: "must not be empty"})
	}
	if p.Price <= 0 {
		fields = append(fields, dErrors.FieldError{Field: "price", Message: "must be a positive number"})
	}
	if p.DiscountPrice != nil && (*p.DiscountPrice <= 0 || *p.DiscountPrice >= p.Price) {
		fields = append(fields, dErrors.FieldError{Field: "discount_price", Message: "must be positive and below price"})
	}
	if len(p.Images) == 0 {
		fields = append(fields, dErrors.FieldError{Field: "images", Message: "at least one is required"})
	}
	if len(fields) > 0 {
		return dErrors.New(dErrors.CodeValidation, "invalid property update").WithFields(fields...)
	}

	p.UpdatedAt = now
	return nil
}

func trimAddress(a Address) Address {
	return Address{
		House:      strings.TrimSpace(a.House),
		Street:     strings.TrimSpace(a.Street),
		City:       strings.TrimSpace(a.City),
		PostalCode: strings.TrimSpace(a.PostalCode),
	}
}

// Filter narrows a listing query. Zero values mean "no constraint".
type Filter struct {
	Type     Type
	City     string
	MinPrice *int64
	MaxPrice *int64
	ForSale  *bool
	SellerID domain.AccountID
	MinBeds  *int
	MinBaths *int
}

// Matches reports whether p satisfies the filter. The memory store applies
// it directly; the Postgres store compiles it into SQL.
func (f Filter) Matches(p *Property) bool {
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	if f.City != "" && !strings.Contains(strings.ToLower(p.Address.City), strings.ToLower(f.City)) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.ForSale != nil && p.ForSale != *f.ForSale {
		return false
	}
	if !f.SellerID.IsNil() && p.SellerID != f.SellerID {
		return false
	}
	if f.MinBeds != nil && (p.Beds == nil || *p.Beds < *f.MinBeds) {
		return false
	}
	if f.MinBaths != nil && (p.Baths == nil || *p.Baths < *f.MinBaths) {
		return false
	}
	return true
}
