package model

import (
	"encoding/json"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreateRequest() CreateCarRequest {
	return CreateCarRequest{
		Name:     "Tesla Model S",
		Category: "Electric",
		Pricing:  &PricingInput{BasePrice: decimal.NewFromInt(120)},
		Images: []ImageInput{
			{URL: "https://cdn.example.com/cars/a.jpg", Path: "cars/a.jpg", IsPrimary: true},
		},
		Features:       []FeatureInput{{Name: "Autopilot"}},
		Specifications: []SpecificationInput{{Name: "Range", Value: "600 km"}},
	}
}

func validationKeys(t *testing.T, err error) []string {
	t.Helper()
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	return keys
}

func TestCreateCarRequest_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req := validCreateRequest()
		req.Normalize()
		assert.NoError(t, req.Validate())
	})

	t.Run("blank name", func(t *testing.T) {
		req := validCreateRequest()
		req.Name = "   "
		req.Normalize()
		assert.Contains(t, validationKeys(t, req.Validate()), "name")
	})

	t.Run("missing category", func(t *testing.T) {
		req := validCreateRequest()
		req.Category = ""
		assert.Contains(t, validationKeys(t, req.Validate()), "category")
	})

	t.Run("negative price", func(t *testing.T) {
		req := validCreateRequest()
		req.Pricing.BasePrice = decimal.NewFromInt(-1)
		assert.Contains(t, validationKeys(t, req.Validate()), "pricing")
	})

	t.Run("image without path", func(t *testing.T) {
		req := validCreateRequest()
		req.Images = append(req.Images, ImageInput{URL: "https://cdn.example.com/b.jpg"})
		assert.Contains(t, validationKeys(t, req.Validate()), "images")
	})

	t.Run("duplicate image path", func(t *testing.T) {
		req := validCreateRequest()
		req.Images = append(req.Images, req.Images[0])
		assert.Contains(t, validationKeys(t, req.Validate()), "images")
	})

	t.Run("pricing is optional", func(t *testing.T) {
		req := validCreateRequest()
		req.Pricing = nil
		assert.NoError(t, req.Validate())
	})
}

func TestUpdateCarRequest_Validate(t *testing.T) {
	decode := func(t *testing.T, body string) UpdateCarRequest {
		t.Helper()
		var req UpdateCarRequest
		require.NoError(t, json.Unmarshal([]byte(body), &req))
		req.Normalize()
		return req
	}

	t.Run("empty patch is valid", func(t *testing.T) {
		req := decode(t, `{}`)
		assert.NoError(t, req.Validate())
	})

	t.Run("null description clears", func(t *testing.T) {
		req := decode(t, `{"description": null}`)
		assert.NoError(t, req.Validate())
		assert.True(t, req.Description.Set)
		assert.Nil(t, req.Description.Ptr())
	})

	t.Run("null name rejected", func(t *testing.T) {
		req := decode(t, `{"name": null}`)
		assert.Contains(t, validationKeys(t, req.Validate()), "name")
	})

	t.Run("blank category rejected", func(t *testing.T) {
		req := decode(t, `{"category": "  "}`)
		assert.Contains(t, validationKeys(t, req.Validate()), "category")
	})

	t.Run("null pricing rejected", func(t *testing.T) {
		req := decode(t, `{"pricing": null}`)
		assert.Contains(t, validationKeys(t, req.Validate()), "pricing")
	})

	t.Run("null images clears", func(t *testing.T) {
		req := decode(t, `{"images": null, "features": []}`)
		assert.NoError(t, req.Validate())
		assert.True(t, req.Images.Set)
		assert.Empty(t, req.Images.Value)
	})

	t.Run("duplicate paths rejected", func(t *testing.T) {
		req := decode(t, `{"images": [
			{"url": "https://x.io/a.jpg", "path": "cars/a.jpg"},
			{"url": "https://x.io/a2.jpg", "path": "cars/a.jpg"}
		]}`)
		assert.Contains(t, validationKeys(t, req.Validate()), "images")
	})
}

func TestPricingInput_ToPricing(t *testing.T) {
	carID := uuid.New()

	p := PricingInput{BasePrice: decimal.NewFromInt(50), Currency: " eur "}.ToPricing(carID)
	assert.Equal(t, carID, p.CarID)
	assert.Equal(t, "EUR", p.Currency)

	p = PricingInput{BasePrice: decimal.NewFromInt(50)}.ToPricing(carID)
	assert.Equal(t, "USD", p.Currency)
}

func TestToImages_TagsCarID(t *testing.T) {
	carID := uuid.New()
	images := ToImages(carID, []ImageInput{{URL: "u", Path: "p", SortOrder: intPtr(4)}})
	require.Len(t, images, 1)
	assert.Equal(t, carID, images[0].CarID)
	assert.Equal(t, 4, images[0].Order())
}
