package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

// Client talks to the remote catalog REST backend. The cart treats its
// records as opaque display data; no catalog consistency is validated here
// beyond what the cart boundary needs.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type Category struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Description   string `json:"description"`
	ImageURL      string `json:"imageUrl"`
	DisplayOrder  int    `json:"displayOrder"`
	ProductsCount int    `json:"productsCount"`
}

type CustomizationOption struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	PriceModifier decimal.Decimal `json:"priceModifier"`
	IsDefault     bool            `json:"isDefault"`
}

type Customization struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Type       string                `json:"type"`
	IsRequired bool                  `json:"isRequired"`
	IsMultiple bool                  `json:"isMultiple"`
	Options    []CustomizationOption `json:"options"`
}

type Variant struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl"`
	IsDefault bool            `json:"isDefault"`
}

type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	ImageURL       string          `json:"imageUrl"`
	IsPopular      bool            `json:"isPopular"`
	IsAvailable    bool            `json:"isAvailable"`
	Category       Category        `json:"category"`
	Customizations []Customization `json:"customizations"`
	Variants       []Variant       `json:"variants,omitempty"`
}

type productsResponse struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message"`
	Products []Product `json:"products"`
}

type productResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Product Product `json:"product"`
}

type categoriesResponse struct {
	Success    bool       `json:"success"`
	Message    string     `json:"message"`
	Categories []Category `json:"categories"`
}

func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var out productsResponse
	if err := c.get(ctx, "/products", &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("catalog refused products request: %s", out.Message)
	}
	return out.Products, nil
}

func (c *Client) ProductsByCategory(ctx context.Context, categorySlug string) ([]Product, error) {
	var out productsResponse
	if err := c.get(ctx, "/products/category/"+url.PathEscape(categorySlug), &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("catalog refused category request: %s", out.Message)
	}
	return out.Products, nil
}

// Product fetches one product by its slug or id.
func (c *Client) Product(ctx context.Context, slug string) (*Product, error) {
	var out productResponse
	if err := c.get(ctx, "/products/"+url.PathEscape(slug), &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, ErrProductNotFound
	}
	return &out.Product, nil
}

func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var out categoriesResponse
	if err := c.get(ctx, "/categories", &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("catalog refused categories request: %s", out.Message)
	}
	return out.Categories, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}
	return nil
}
