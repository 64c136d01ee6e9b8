package model

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	maxNameLength             = 120
	maxCategoryLength         = 60
	maxShortDescriptionLength = 300
	defaultCurrency           = "USD"
)

// ============================================
// RELATED PAYLOADS
// ============================================

type PricingInput struct {
	BasePrice    decimal.Decimal  `json:"basePrice"`
	WeeklyPrice  *decimal.Decimal `json:"weeklyPrice"`
	MonthlyPrice *decimal.Decimal `json:"monthlyPrice"`
	Deposit      *decimal.Decimal `json:"deposit"`
	Currency     string           `json:"currency"`
}

func (p PricingInput) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.BasePrice, validation.By(nonNegative)),
		validation.Field(&p.WeeklyPrice, validation.By(nonNegative)),
		validation.Field(&p.MonthlyPrice, validation.By(nonNegative)),
		validation.Field(&p.Deposit, validation.By(nonNegative)),
		validation.Field(&p.Currency, validation.Length(3, 3).Error("currency must be a 3 letter ISO code")),
	)
}

// ToPricing builds the stored row for carID
func (p PricingInput) ToPricing(carID uuid.UUID) Pricing {
	currency := strings.ToUpper(strings.TrimSpace(p.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	return Pricing{
		CarID:        carID,
		BasePrice:    p.BasePrice,
		WeeklyPrice:  p.WeeklyPrice,
		MonthlyPrice: p.MonthlyPrice,
		Deposit:      p.Deposit,
		Currency:     currency,
	}
}

type ImageInput struct {
	URL       string `json:"url"`
	Path      string `json:"path"`
	IsPrimary bool   `json:"isPrimary"`
	SortOrder *int   `json:"sortOrder"`
}

func (i ImageInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.URL, validation.Required.Error("image url is required"), is.URL),
		validation.Field(&i.Path, validation.Required.Error("image path is required")),
	)
}

type FeatureInput struct {
	Name string  `json:"name"`
	Icon *string `json:"icon"`
}

func (f FeatureInput) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required.Error("feature name is required"), validation.Length(1, 100)),
	)
}

type SpecificationInput struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (s SpecificationInput) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required.Error("specification name is required"), validation.Length(1, 100)),
		validation.Field(&s.Value, validation.Required.Error("specification value is required"), validation.Length(1, 255)),
	)
}

// ToImages tags every input with carID
func ToImages(carID uuid.UUID, in []ImageInput) []Image {
	out := make([]Image, len(in))
	for i, img := range in {
		out[i] = Image{
			CarID:     carID,
			URL:       img.URL,
			Path:      img.Path,
			IsPrimary: img.IsPrimary,
			SortOrder: img.SortOrder,
		}
	}
	return out
}

func ToFeatures(carID uuid.UUID, in []FeatureInput) []Feature {
	out := make([]Feature, len(in))
	for i, f := range in {
		out[i] = Feature{CarID: carID, Name: strings.TrimSpace(f.Name), Icon: f.Icon}
	}
	return out
}

func ToSpecifications(carID uuid.UUID, in []SpecificationInput) []Specification {
	out := make([]Specification, len(in))
	for i, s := range in {
		out[i] = Specification{CarID: carID, Name: strings.TrimSpace(s.Name), Value: strings.TrimSpace(s.Value)}
	}
	return out
}

// ============================================
// CREATE
// ============================================

type CreateCarRequest struct {
	Name             string               `json:"name"`
	Category         string               `json:"category"`
	Description      *string              `json:"description"`
	ShortDescription *string              `json:"shortDescription"`
	Available        *bool                `json:"available"`
	Featured         *bool                `json:"featured"`
	Hidden           *bool                `json:"hidden"`
	Pricing          *PricingInput        `json:"pricing"`
	Images           []ImageInput         `json:"images"`
	Features         []FeatureInput       `json:"features"`
	Specifications   []SpecificationInput `json:"specifications"`

	CreatedBy *uuid.UUID `json:"-"`
}

// Normalize trims free text so validation sees what will be stored
func (r *CreateCarRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Category = strings.TrimSpace(r.Category)
}

func (r CreateCarRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			validation.Length(1, maxNameLength),
		),
		validation.Field(&r.Category,
			validation.Required.Error("category is required"),
			validation.Length(1, maxCategoryLength),
		),
		validation.Field(&r.ShortDescription, validation.Length(0, maxShortDescriptionLength)),
		validation.Field(&r.Pricing),
		validation.Field(&r.Images, validation.By(uniqueImagePaths)),
		validation.Field(&r.Features),
		validation.Field(&r.Specifications),
	)
}

// ============================================
// UPDATE (PATCH)
// ============================================

// UpdateCarRequest: absent fields are left unchanged, an explicit null on
// a nullable field clears it, a null collection clears the collection
type UpdateCarRequest struct {
	Name             Optional[string]               `json:"name"`
	Category         Optional[string]               `json:"category"`
	Description      Optional[string]               `json:"description"`
	ShortDescription Optional[string]               `json:"shortDescription"`
	Available        Optional[bool]                 `json:"available"`
	Featured         Optional[bool]                 `json:"featured"`
	Hidden           Optional[bool]                 `json:"hidden"`
	Pricing          Optional[PricingInput]         `json:"pricing"`
	Images           Optional[[]ImageInput]         `json:"images"`
	Features         Optional[[]FeatureInput]       `json:"features"`
	Specifications   Optional[[]SpecificationInput] `json:"specifications"`
}

func (r *UpdateCarRequest) Normalize() {
	if r.Name.HasValue() {
		r.Name.Value = strings.TrimSpace(r.Name.Value)
	}
	if r.Category.HasValue() {
		r.Category.Value = strings.TrimSpace(r.Category.Value)
	}
}

func (r UpdateCarRequest) Validate() error {
	errs := validation.Errors{}

	if r.Name.Set {
		errs["name"] = validation.Validate(r.Name.Value,
			validation.Required.Error("name is required"),
			validation.Length(1, maxNameLength),
		)
	}
	if r.Category.Set {
		errs["category"] = validation.Validate(r.Category.Value,
			validation.Required.Error("category is required"),
			validation.Length(1, maxCategoryLength),
		)
	}
	if r.ShortDescription.HasValue() {
		errs["shortDescription"] = validation.Validate(r.ShortDescription.Value, validation.Length(0, maxShortDescriptionLength))
	}
	if r.Pricing.Set {
		if r.Pricing.Null {
			errs["pricing"] = errors.New("pricing cannot be null")
		} else {
			errs["pricing"] = r.Pricing.Value.Validate()
		}
	}
	if r.Images.HasValue() {
		errs["images"] = validation.Validate(r.Images.Value, validation.By(uniqueImagePaths))
	}
	if r.Features.HasValue() {
		errs["features"] = validation.Validate(r.Features.Value)
	}
	if r.Specifications.HasValue() {
		errs["specifications"] = validation.Validate(r.Specifications.Value)
	}

	return errs.Filter()
}

// ============================================
// CUSTOM RULES
// ============================================

func nonNegative(value interface{}) error {
	var d decimal.Decimal
	switch v := value.(type) {
	case decimal.Decimal:
		d = v
	case *decimal.Decimal:
		if v == nil {
			return nil
		}
		d = *v
	default:
		return fmt.Errorf("unsupported type %T", value)
	}
	if d.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}

// uniqueImagePaths rejects two images with the same storage path; the path
// is the upsert key so duplicates cannot be written in one statement
func uniqueImagePaths(value interface{}) error {
	images, ok := value.([]ImageInput)
	if !ok {
		return nil
	}
	seen := make(map[string]struct{}, len(images))
	for _, img := range images {
		if _, dup := seen[img.Path]; dup {
			return fmt.Errorf("duplicate image path %q", img.Path)
		}
		seen[img.Path] = struct{}{}
	}
	for _, img := range images {
		if err := img.Validate(); err != nil {
			return err
		}
	}
	return nil
}
