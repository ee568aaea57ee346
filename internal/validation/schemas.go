package validation

import (
	"fmt"
	"math"
	"strings"

	"foozadmin/internal/models"

	"github.com/spf13/cast"
)

// Login validates the login form.
func Login(input map[string]any) (models.Credentials, error) {
	c := newCollector()
	creds := models.Credentials{
		Email:    str(input, "email"),
		Password: str(input, "password"),
	}
	return creds, c.finish(instance().Struct(creds))
}

// Category validates the category form.
func Category(input map[string]any) (models.Category, error) {
	c := newCollector()
	cat := models.Category{
		ID:   str(input, "id"),
		Name: str(input, "name"),
		Slug: str(input, "slug"),
	}
	notBlank(c, "name", cat.Name)
	notBlank(c, "slug", cat.Slug)
	return cat, c.finish(instance().Struct(cat))
}

// Product validates the product form. Numeric fields accept numbers or
// numeric strings; isActive defaults to true when omitted.
func Product(input map[string]any) (models.Product, error) {
	c := newCollector()
	p := models.Product{
		ID:           str(input, "id"),
		Name:         str(input, "name"),
		Description:  str(input, "description"),
		CategoryID:   str(input, "categoryId"),
		GlbURL:       str(input, "glbUrl"),
		Images:       strSlice(c, input, "images"),
		ColorIDs:     strSlice(c, input, "colorIds"),
		AccessoryIDs: strSlice(c, input, "accessoryIds"),
		IsActive:     true,
	}
	notBlank(c, "name", p.Name)
	notBlank(c, "description", p.Description)
	notBlank(c, "categoryId", p.CategoryID)

	if f, ok := number(c, input["price"], "price"); ok {
		p.Price = f
	}
	if f, ok := number(c, input["discountPercentage"], "discountPercentage"); ok {
		p.DiscountPercentage = &f
	}
	if isBlank(input["stock"]) {
		c.add("stock", "is required")
	} else if f, ok := number(c, input["stock"], "stock"); ok {
		switch {
		case f != math.Trunc(f):
			c.add("stock", "must be a whole number")
		case f > math.MaxInt32:
			c.add("stock", "is too large")
		case f < 0:
			c.add("stock", "must be at least 0")
		default:
			p.Stock = int(f)
		}
	}
	if raw, ok := input["isActive"]; ok && raw != nil {
		b, err := cast.ToBoolE(raw)
		if err != nil {
			c.add("isActive", "must be true or false")
		} else {
			p.IsActive = b
		}
	}
	p.Sizes = sizes(c, input["sizes"])

	return p, c.finish(instance().Struct(p))
}

func sizes(c *collector, raw any) []models.Size {
	if isBlank(raw) {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		c.add("sizes", "must be a list")
		return nil
	}
	out := make([]models.Size, 0, len(list))
	for i, item := range list {
		path := fmt.Sprintf("sizes[%d]", i)
		m, ok := item.(map[string]any)
		if !ok {
			c.add(path, "must be an object")
			continue
		}
		s := models.Size{
			Name:       str(m, "name"),
			Dimensions: str(m, "dimensions"),
		}
		notBlank(c, path+".name", s.Name)
		if f, ok := number(c, m["price"], path+".price"); ok {
			s.Price = f
		}
		out = append(out, s)
	}
	return out
}

// number coerces a string-or-number value. Blank values report ok=false
// without a violation so the tag rules decide whether the field is required.
func number(c *collector, raw any, field string) (float64, bool) {
	if isBlank(raw) {
		return 0, false
	}
	if s, isStr := raw.(string); isStr {
		raw = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		c.add(field, "must be a number")
		return 0, false
	}
	return f, true
}

// str returns the value as entered. Passwords and names keep their spaces.
func str(input map[string]any, key string) string {
	v, ok := input[key]
	if !ok || v == nil {
		return ""
	}
	return cast.ToString(v)
}

// notBlank reports a whitespace-only value, which the length tags alone
// would accept.
func notBlank(c *collector, field, value string) {
	if value != "" && strings.TrimSpace(value) == "" {
		c.add(field, "is required")
	}
}

func strSlice(c *collector, input map[string]any, key string) []string {
	raw, ok := input[key]
	if !ok || raw == nil {
		return nil
	}
	list, err := cast.ToStringSliceE(raw)
	if err != nil {
		c.add(key, "must be a list of strings")
		return nil
	}
	return list
}

func isBlank(raw any) bool {
	if raw == nil {
		return true
	}
	s, ok := raw.(string)
	return ok && strings.TrimSpace(s) == ""
}
