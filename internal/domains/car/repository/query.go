package repository

import (
	"fmt"
	"strings"

	"carrental-backend/internal/shared/utils"

	"github.com/google/uuid"
)

// visibleClause treats NULL flags with the same defaults as the assembler
const visibleClause = "COALESCE(c.available, TRUE) AND NOT COALESCE(c.hidden, FALSE)"

const baseColumns = `c.id, c.slug, c.name, c.category, c.description, c.short_description,
	c.available, c.featured, c.hidden, c.created_by, c.created_at, c.updated_at`

// aggregateSelect returns the root columns plus every child collection as
// JSON. Pricing is a bare object, the collections are arrays.
const aggregateSelect = `
	SELECT
		` + baseColumns + `,
		(
			SELECT json_build_object(
				'id', p.id, 'carId', p.car_id, 'basePrice', p.base_price,
				'weeklyPrice', p.weekly_price, 'monthlyPrice', p.monthly_price,
				'deposit', p.deposit, 'currency', p.currency
			)
			FROM car_pricing p WHERE p.car_id = c.id
		) AS pricing,
		(
			SELECT json_agg(json_build_object(
				'id', i.id, 'carId', i.car_id, 'url', i.url, 'path', i.path,
				'isPrimary', i.is_primary, 'sortOrder', i.sort_order
			) ORDER BY i.position, i.created_at)
			FROM car_images i WHERE i.car_id = c.id
		) AS images,
		(
			SELECT json_agg(json_build_object(
				'id', f.id, 'carId', f.car_id, 'name', f.name, 'icon', f.icon
			) ORDER BY f.position, f.created_at)
			FROM car_features f WHERE f.car_id = c.id
		) AS features,
		(
			SELECT json_agg(json_build_object(
				'id', s.id, 'carId', s.car_id, 'name', s.name, 'value', s.value
			) ORDER BY s.position, s.created_at)
			FROM car_specifications s WHERE s.car_id = c.id
		) AS specifications
	FROM cars c
`

// listingSelect joins only what listings derive from: pricing arrives as an
// array of at most one element, images as an array
const listingSelect = `
	SELECT
		c.id, c.slug, c.name, c.category, c.short_description,
		c.available, c.featured, c.hidden, c.created_at, c.updated_at,
		(
			SELECT json_agg(json_build_object('basePrice', p.base_price, 'currency', p.currency))
			FROM car_pricing p WHERE p.car_id = c.id
		) AS pricing,
		(
			SELECT json_agg(json_build_object(
				'url', i.url, 'path', i.path, 'isPrimary', i.is_primary, 'sortOrder', i.sort_order
			) ORDER BY i.position, i.created_at)
			FROM car_images i WHERE i.car_id = c.id
		) AS images
	FROM cars c
`

// buildListingQuery builds the SQL and args of a listing
func buildListingQuery(filter ListFilter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)
	argIndex := 1

	if filter.VisibleOnly {
		conditions = append(conditions, visibleClause)
	}
	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("c.category = $%d", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}
	if filter.ExcludeID != nil {
		conditions = append(conditions, fmt.Sprintf("c.id <> $%d", argIndex))
		args = append(args, *filter.ExcludeID)
		argIndex++
	}

	var sb strings.Builder
	sb.WriteString(listingSelect)
	if len(conditions) > 0 {
		sb.WriteString("\tWHERE ")
		sb.WriteString(utils.JoinWithAnd(conditions))
		sb.WriteString("\n")
	}

	switch filter.Order {
	case OrderFeaturedFirst:
		sb.WriteString("\tORDER BY COALESCE(c.featured, FALSE) DESC, c.created_at DESC\n")
	default:
		sb.WriteString("\tORDER BY c.created_at DESC\n")
	}

	if filter.Limit > 0 {
		sb.WriteString(fmt.Sprintf("\tLIMIT $%d\n", argIndex))
		args = append(args, filter.Limit)
	}

	return sb.String(), args
}

// buildPatchQuery builds the UPDATE of a sparse root patch. ok is false for
// an empty patch.
func buildPatchQuery(id uuid.UUID, patch CarPatch) (query string, args []interface{}, ok bool) {
	var sets []string
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name.Set {
		add("name", patch.Name.Value)
	}
	if patch.Slug.Set {
		add("slug", patch.Slug.Value)
	}
	if patch.Category.Set {
		add("category", patch.Category.Value)
	}
	if patch.Description.Set {
		add("description", patch.Description.Ptr())
	}
	if patch.ShortDescription.Set {
		add("short_description", patch.ShortDescription.Ptr())
	}
	if patch.Available.Set {
		add("available", patch.Available.Ptr())
	}
	if patch.Featured.Set {
		add("featured", patch.Featured.Ptr())
	}
	if patch.Hidden.Set {
		add("hidden", patch.Hidden.Ptr())
	}

	if len(sets) == 0 {
		return "", nil, false
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)
	query = fmt.Sprintf("UPDATE cars SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	return query, args, true
}
