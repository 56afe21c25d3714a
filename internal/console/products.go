package console

import (
	"context"
	"fmt"

	"github.com/jogardn/shop-console/internal/shopapi"
	"github.com/jogardn/shop-console/pkg/models"
)

func (c *Console) LoadProducts(ctx context.Context, filter shopapi.ProductFilter) error {
	c.mutex.Lock()
	c.view.ProductFilter = filter
	c.mutex.Unlock()

	products, err := c.api.ListProducts(ctx, filter)
	if err != nil {
		return c.fail(ctx, "Failed to load products", err)
	}

	c.mutex.Lock()
	c.view.Products = products
	c.mutex.Unlock()

	c.viewChanged(ctx, ViewProducts)
	return nil
}

// LoadCategories refreshes the category filter. Failures are only logged.
func (c *Console) LoadCategories(ctx context.Context) error {
	categories, err := c.api.ListCategories(ctx)
	if err != nil {
		c.logger.WithError(err).WithField("session_id", c.sessionID).Error("Failed to load categories")
		return err
	}

	c.mutex.Lock()
	c.view.Categories = categories
	c.mutex.Unlock()
	return nil
}

// QueueProductSearch records the filter and reloads products once typing
// pauses.
func (c *Console) QueueProductSearch(filter shopapi.ProductFilter) {
	c.mutex.Lock()
	c.view.ProductFilter = filter
	c.mutex.Unlock()

	c.productSearch.Trigger(filter)
}

// Product looks a product up in the loaded list, for prefilling the edit form.
func (c *Console) Product(id string) (models.Product, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	for _, p := range c.view.Products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// SaveProduct creates the product when id is empty and updates it otherwise.
func (c *Console) SaveProduct(ctx context.Context, id string, input models.ProductInput) (*models.Product, error) {
	var (
		product *models.Product
		err     error
	)
	if id == "" {
		product, err = c.api.CreateProduct(ctx, input)
	} else {
		product, err = c.api.UpdateProduct(ctx, id, input)
	}
	if err != nil {
		return nil, c.fail(ctx, "Failed to save product", err)
	}

	c.reloadCatalog(ctx)

	verb := "created"
	if id != "" {
		verb = "updated"
	}
	c.succeed(ctx, fmt.Sprintf("Product %s successfully!", verb))
	c.publish(ctx, EventProductSaved, product)
	return product, nil
}

func (c *Console) DeleteProduct(ctx context.Context, id string) error {
	if err := c.api.DeleteProduct(ctx, id); err != nil {
		return c.fail(ctx, "Failed to delete product", err)
	}

	c.reloadCatalog(ctx)
	c.succeed(ctx, "Product deleted successfully!")
	c.publish(ctx, EventProductDeleted, map[string]string{"product_id": id})
	return nil
}

func (c *Console) reloadCatalog(ctx context.Context) {
	c.mutex.RLock()
	filter := c.view.ProductFilter
	c.mutex.RUnlock()

	c.LoadProducts(ctx, filter)
	c.LoadCategories(ctx)
}
