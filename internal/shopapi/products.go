package shopapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jogardn/shop-console/pkg/models"
	"github.com/sirupsen/logrus"
)

type ProductFilter struct {
	Search   string
	Category string
}

func (f ProductFilter) query() string {
	params := url.Values{}
	if f.Search != "" {
		params.Set("search", f.Search)
	}
	if f.Category != "" {
		params.Set("category", f.Category)
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}

func (c *Client) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	var resp models.ProductList
	if err := c.Do(ctx, http.MethodGet, "/api/products"+filter.query(), nil, &resp); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"count":    len(resp.Products),
		"search":   filter.Search,
		"category": filter.Category,
	}).Debug("Retrieved products from shop API")

	if resp.Products == nil {
		resp.Products = []models.Product{}
	}
	return resp.Products, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var resp models.CategoryList
	if err := c.Do(ctx, http.MethodGet, "/api/products/categories", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Categories == nil {
		resp.Categories = []string{}
	}
	return resp.Categories, nil
}

func (c *Client) CreateProduct(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	c.logger.WithField("name", input.Name).Info("Creating product")

	var product models.Product
	if err := c.Do(ctx, http.MethodPost, "/api/products", input, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) UpdateProduct(ctx context.Context, productID string, input models.ProductInput) (*models.Product, error) {
	c.logger.WithField("product_id", productID).Info("Updating product")

	var product models.Product
	if err := c.Do(ctx, http.MethodPut, "/api/products/"+url.PathEscape(productID), input, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) DeleteProduct(ctx context.Context, productID string) error {
	c.logger.WithField("product_id", productID).Info("Deleting product")
	return c.Do(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(productID), nil, nil)
}
