package pages

import (
	"strconv"
	"strings"

	"github.com/playwright-community/playwright-go"
)

type InventoryPage struct {
	*Base
	productItems        playwright.Locator
	productNames        playwright.Locator
	productPrices       playwright.Locator
	productDescriptions playwright.Locator
	addToCartButtons    playwright.Locator
	removeButtons       playwright.Locator
	sortDropdown        playwright.Locator
	cartBadge           playwright.Locator
	cartLink            playwright.Locator
	burgerMenu          playwright.Locator
	logoutLink          playwright.Locator
}

func NewInventoryPage(b *Base) *InventoryPage {
	return &InventoryPage{
		Base:                b,
		productItems:        b.Page.Locator(".inventory_item"),
		productNames:        b.Page.Locator(".inventory_item_name"),
		productPrices:       b.Page.Locator(".inventory_item_price"),
		productDescriptions: b.Page.Locator(".inventory_item_desc"),
		addToCartButtons:    b.Page.Locator(`button[id^="add-to-cart"]`),
		removeButtons:       b.Page.Locator(`button[id^="remove"]`),
		sortDropdown:        b.Page.Locator(`[data-test="product_sort_container"]`),
		cartBadge:           b.Page.Locator(".shopping_cart_badge"),
		cartLink:            b.Page.Locator(".shopping_cart_link"),
		burgerMenu:          b.Page.Locator("#react-burger-menu-btn"),
		logoutLink:          b.Page.Locator("#logout_sidebar_link"),
	}
}

func (p *InventoryPage) Goto() error {
	if err := p.Navigate("/inventory.html"); err != nil {
		return err
	}
	if err := p.WaitForPageLoad(); err != nil {
		return err
	}
	return p.expectTitle("Products")
}

func (p *InventoryPage) ProductCount() (int, error) {
	return p.productItems.Count()
}

func (p *InventoryPage) ProductName(index int) (string, error) {
	return nthText(p.productNames, index, "product")
}

func (p *InventoryPage) ProductPrice(index int) (string, error) {
	return nthText(p.productPrices, index, "product")
}

func (p *InventoryPage) ProductDescription(index int) (string, error) {
	return nthText(p.productDescriptions, index, "product")
}

func (p *InventoryPage) AddToCart(index int) error {
	button, err := nth(p.addToCartButtons, index, "product")
	if err != nil {
		return err
	}
	return button.Click()
}

// RemoveFromCart clicks the index-th remove button, counting only products
// already in the cart.
func (p *InventoryPage) RemoveFromCart(index int) error {
	button, err := nth(p.removeButtons, index, "remove button")
	if err != nil {
		return err
	}
	return button.Click()
}

func (p *InventoryPage) OpenDetails(index int) error {
	name, err := nth(p.productNames, index, "product")
	if err != nil {
		return err
	}
	return name.Click()
}

func (p *InventoryPage) Sort(option SortOption) error {
	if _, err := p.sortDropdown.SelectOption(playwright.SelectOptionValues{
		Values: &[]string{string(option)},
	}); err != nil {
		return err
	}
	p.Page.WaitForTimeout(500)
	return nil
}

// CartCount is the number on the cart badge, 0 when the badge is hidden.
func (p *InventoryPage) CartCount() (int, error) {
	visible, err := p.cartBadge.IsVisible()
	if err != nil || !visible {
		return 0, err
	}
	text, err := p.cartBadge.TextContent()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(text))
}

func (p *InventoryPage) OpenCart() error {
	return p.cartLink.Click()
}

func (p *InventoryPage) OpenMenu() error {
	if err := p.burgerMenu.Click(); err != nil {
		return err
	}
	p.Page.WaitForTimeout(500)
	return nil
}

func (p *InventoryPage) Logout() error {
	if err := p.OpenMenu(); err != nil {
		return err
	}
	return p.logoutLink.Click()
}

func (p *InventoryPage) AllProducts() ([]Product, error) {
	count, err := p.ProductCount()
	if err != nil {
		return nil, err
	}
	products := make([]Product, 0, count)
	for i := 0; i < count; i++ {
		var product Product
		if product.Name, err = p.ProductName(i); err != nil {
			return nil, err
		}
		if product.Price, err = p.ProductPrice(i); err != nil {
			return nil, err
		}
		if product.Description, err = p.ProductDescription(i); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, nil
}

func (p *InventoryPage) FilterByText(text string) ([]int, error) {
	products, err := p.AllProducts()
	if err != nil {
		return nil, err
	}
	return MatchingProducts(products, text), nil
}

func (p *InventoryPage) VerifySorting(option SortOption) (bool, error) {
	products, err := p.AllProducts()
	if err != nil {
		return false, err
	}
	return IsSorted(products, option)
}
