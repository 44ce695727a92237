// Package model defines the catalog resource types returned by the
// WooCommerce REST API and the failure taxonomy of the transport layer.
// The client does not normalize upstream payloads beyond this shape; the
// synthetic fallback generator reproduces the same field set so consumers
// cannot distinguish provenance except by the is_fallback flag.
package model

import "strconv"

// Category is one product category as returned by GET products/categories.
type Category struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// CategoryRef is the abbreviated category record embedded in a product.
type CategoryRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ProductAttribute is a named attribute with its selectable options
// (e.g. Width with options "6 ft" and "8 ft").
type ProductAttribute struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// Product is one catalog product. WooCommerce serializes prices as strings
// and variations as a list of variation post IDs; both are preserved as-is.
//
// IsFallback marks synthetic placeholder data produced when no live endpoint
// answered. Genuine API responses never carry the flag.
type Product struct {
	ID            int                `json:"id"`
	Name          string             `json:"name"`
	Slug          string             `json:"slug,omitempty"`
	Price         string             `json:"price"`
	RegularPrice  string             `json:"regular_price,omitempty"`
	Categories    []CategoryRef      `json:"categories"`
	Attributes    []ProductAttribute `json:"attributes"`
	StockStatus   string             `json:"stock_status"`
	StockQuantity *int               `json:"stock_quantity"`
	Variations    []int              `json:"variations"`
	IsFallback    bool               `json:"is_fallback,omitempty"`
}

// InCategory reports whether the product belongs to the category identified
// by key, matching either the numeric category ID or the category slug.
func (p *Product) InCategory(key string) bool {
	for _, c := range p.Categories {
		if c.Slug == key || strconv.Itoa(c.ID) == key {
			return true
		}
	}
	return false
}
