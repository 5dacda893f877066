package pages

import (
	"strconv"
	"strings"

	"github.com/playwright-community/playwright-go"
)

type CartPage struct {
	*Base
	items                  playwright.Locator
	itemNames              playwright.Locator
	itemPrices             playwright.Locator
	itemQuantities         playwright.Locator
	removeButtons          playwright.Locator
	continueShoppingButton playwright.Locator
	checkoutButton         playwright.Locator
}

func NewCartPage(b *Base) *CartPage {
	return &CartPage{
		Base:                   b,
		items:                  b.Page.Locator(".cart_item"),
		itemNames:              b.Page.Locator(".inventory_item_name"),
		itemPrices:             b.Page.Locator(".inventory_item_price"),
		itemQuantities:         b.Page.Locator(".cart_quantity"),
		removeButtons:          b.Page.Locator(`button[id^="remove"]`),
		continueShoppingButton: b.Page.Locator(`[data-test="continue-shopping"]`),
		checkoutButton:         b.Page.Locator(`[data-test="checkout"]`),
	}
}

func (p *CartPage) Goto() error {
	if err := p.Navigate("/cart.html"); err != nil {
		return err
	}
	if err := p.WaitForPageLoad(); err != nil {
		return err
	}
	return p.expectTitle("Your Cart")
}

func (p *CartPage) Items() ([]playwright.Locator, error) {
	return p.items.All()
}

func (p *CartPage) ItemCount() (int, error) {
	return p.items.Count()
}

func (p *CartPage) ItemName(index int) (string, error) {
	return nthText(p.itemNames, index, "cart item")
}

func (p *CartPage) ItemPrice(index int) (string, error) {
	return nthText(p.itemPrices, index, "cart item")
}

func (p *CartPage) ItemQuantity(index int) (int, error) {
	text, err := nthText(p.itemQuantities, index, "cart item")
	if err != nil {
		return 0, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	return strconv.Atoi(text)
}

func (p *CartPage) Remove(index int) error {
	button, err := nth(p.removeButtons, index, "cart item")
	if err != nil {
		return err
	}
	return button.Click()
}

func (p *CartPage) ContinueShopping() error {
	return p.continueShoppingButton.Click()
}

func (p *CartPage) Checkout() error {
	return p.checkoutButton.Click()
}

func (p *CartPage) AllItems() ([]CartItem, error) {
	count, err := p.ItemCount()
	if err != nil {
		return nil, err
	}
	items := make([]CartItem, 0, count)
	for i := 0; i < count; i++ {
		var item CartItem
		if item.Name, err = p.ItemName(i); err != nil {
			return nil, err
		}
		if item.Price, err = p.ItemPrice(i); err != nil {
			return nil, err
		}
		if item.Quantity, err = p.ItemQuantity(i); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Total sums price times quantity over the cart, rounded to cents.
func (p *CartPage) Total() (float64, error) {
	items, err := p.AllItems()
	if err != nil {
		return 0, err
	}
	return CartTotal(items)
}

func (p *CartPage) IsEmpty() (bool, error) {
	count, err := p.ItemCount()
	return count == 0, err
}

func (p *CartPage) Contains(name string) (bool, error) {
	i, err := p.IndexOf(name)
	return i >= 0, err
}

// IndexOf returns -1 when no item is called name.
func (p *CartPage) IndexOf(name string) (int, error) {
	count, err := p.ItemCount()
	if err != nil {
		return -1, err
	}
	for i := 0; i < count; i++ {
		n, err := p.ItemName(i)
		if err != nil {
			return -1, err
		}
		if n == name {
			return i, nil
		}
	}
	return -1, nil
}

func (p *CartPage) VerifyItems(expected []CartItem) (bool, error) {
	items, err := p.AllItems()
	if err != nil {
		return false, err
	}
	return SameItems(items, expected), nil
}
