package pages

import (
	"github.com/playwright-community/playwright-go"
)

// CheckoutPage covers the information, overview and complete steps.
type CheckoutPage struct {
	*Base
	firstNameInput  playwright.Locator
	lastNameInput   playwright.Locator
	postalCodeInput playwright.Locator
	continueButton  playwright.Locator
	cancelButton    playwright.Locator
	errorMessage    playwright.Locator
	items           playwright.Locator
	subtotalLabel   playwright.Locator
	taxLabel        playwright.Locator
	totalLabel      playwright.Locator
	finishButton    playwright.Locator
	completeHeader  playwright.Locator
	completeText    playwright.Locator
	backHomeButton  playwright.Locator
}

func NewCheckoutPage(b *Base) *CheckoutPage {
	return &CheckoutPage{
		Base:            b,
		firstNameInput:  b.Page.Locator(`[data-test="firstName"]`),
		lastNameInput:   b.Page.Locator(`[data-test="lastName"]`),
		postalCodeInput: b.Page.Locator(`[data-test="postalCode"]`),
		continueButton:  b.Page.Locator(`[data-test="continue"]`),
		cancelButton:    b.Page.Locator(`[data-test="cancel"]`),
		errorMessage:    b.Page.Locator(`[data-test="error"]`),
		items:           b.Page.Locator(".cart_item"),
		subtotalLabel:   b.Page.Locator(".summary_subtotal_label"),
		taxLabel:        b.Page.Locator(".summary_tax_label"),
		totalLabel:      b.Page.Locator(".summary_total_label"),
		finishButton:    b.Page.Locator(`[data-test="finish"]`),
		completeHeader:  b.Page.Locator(".complete-header"),
		completeText:    b.Page.Locator(".complete-text"),
		backHomeButton:  b.Page.Locator(`[data-test="back-to-products"]`),
	}
}

func (p *CheckoutPage) goTo(path string, title string) error {
	if err := p.Navigate(path); err != nil {
		return err
	}
	if err := p.WaitForPageLoad(); err != nil {
		return err
	}
	return p.expectTitle(title)
}

func (p *CheckoutPage) GotoInformation() error {
	return p.goTo("/checkout-step-one.html", "Checkout: Your Information")
}

// GotoOverview skips the information step.
func (p *CheckoutPage) GotoOverview() error {
	return p.goTo("/checkout-step-two.html", "Checkout: Overview")
}

func (p *CheckoutPage) FillInformation(firstName string, lastName string, postalCode string) error {
	if err := p.firstNameInput.Fill(firstName); err != nil {
		return err
	}
	if err := p.lastNameInput.Fill(lastName); err != nil {
		return err
	}
	return p.postalCodeInput.Fill(postalCode)
}

func (p *CheckoutPage) Continue() error {
	if err := p.continueButton.Click(); err != nil {
		return err
	}
	if err := p.WaitForPageLoad(); err != nil {
		return err
	}
	return p.expectTitle("Checkout: Overview")
}

func (p *CheckoutPage) FillInformationAndContinue(firstName string, lastName string, postalCode string) error {
	if err := p.FillInformation(firstName, lastName, postalCode); err != nil {
		return err
	}
	return p.Continue()
}

// Cancel leaves either checkout step through its cancel button.
func (p *CheckoutPage) Cancel() error {
	return p.cancelButton.Click()
}

func (p *CheckoutPage) ErrorMessage() (string, error) {
	if err := p.expect.Locator(p.errorMessage).ToBeVisible(); err != nil {
		return "", err
	}
	return p.Text(p.errorMessage)
}

func (p *CheckoutPage) ItemCount() (int, error) {
	return p.items.Count()
}

func (p *CheckoutPage) labelText(label playwright.Locator) (string, error) {
	text, err := p.Text(label)
	if err != nil {
		return "", err
	}
	return labelValue(text)
}

func (p *CheckoutPage) Subtotal() (string, error) {
	return p.labelText(p.subtotalLabel)
}

func (p *CheckoutPage) Tax() (string, error) {
	return p.labelText(p.taxLabel)
}

func (p *CheckoutPage) Total() (string, error) {
	return p.labelText(p.totalLabel)
}

func (p *CheckoutPage) labelAmount(label playwright.Locator) (float64, error) {
	text, err := p.labelText(label)
	if err != nil {
		return 0, err
	}
	return ParsePrice(text)
}

func (p *CheckoutPage) NumericSubtotal() (float64, error) {
	return p.labelAmount(p.subtotalLabel)
}

func (p *CheckoutPage) NumericTax() (float64, error) {
	return p.labelAmount(p.taxLabel)
}

func (p *CheckoutPage) NumericTotal() (float64, error) {
	return p.labelAmount(p.totalLabel)
}

func (p *CheckoutPage) VerifyTotals() (bool, error) {
	subtotal, err := p.NumericSubtotal()
	if err != nil {
		return false, err
	}
	tax, err := p.NumericTax()
	if err != nil {
		return false, err
	}
	total, err := p.NumericTotal()
	if err != nil {
		return false, err
	}
	return TotalsMatch(subtotal, tax, total), nil
}

func (p *CheckoutPage) Finish() error {
	if err := p.finishButton.Click(); err != nil {
		return err
	}
	if err := p.WaitForPageLoad(); err != nil {
		return err
	}
	return p.expectTitle("Checkout: Complete!")
}

func (p *CheckoutPage) IsComplete() (bool, error) {
	for _, l := range []playwright.Locator{p.completeHeader, p.backHomeButton} {
		visible, err := l.IsVisible()
		if err != nil || !visible {
			return false, err
		}
	}
	return true, nil
}

func (p *CheckoutPage) CompleteHeader() (string, error) {
	return p.Text(p.completeHeader)
}

func (p *CheckoutPage) CompleteMessage() (string, error) {
	return p.Text(p.completeText)
}

func (p *CheckoutPage) BackHome() error {
	return p.backHomeButton.Click()
}

// Complete runs the whole checkout and reports whether the confirmation is
// shown.
func (p *CheckoutPage) Complete(firstName string, lastName string, postalCode string) (bool, error) {
	if err := p.FillInformationAndContinue(firstName, lastName, postalCode); err != nil {
		return false, err
	}
	if err := p.Finish(); err != nil {
		return false, err
	}
	return p.IsComplete()
}
