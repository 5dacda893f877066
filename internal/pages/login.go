package pages

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

const LockedOutUsername = "locked_out_user"

type LoginPage struct {
	*Base
	usernameInput playwright.Locator
	passwordInput playwright.Locator
	loginButton   playwright.Locator
	errorMessage  playwright.Locator
	logo          playwright.Locator
}

func NewLoginPage(b *Base) *LoginPage {
	return &LoginPage{
		Base:          b,
		usernameInput: b.Page.Locator(`[data-test="username"]`),
		passwordInput: b.Page.Locator(`[data-test="password"]`),
		loginButton:   b.Page.Locator(`[data-test="login-button"]`),
		errorMessage:  b.Page.Locator(`[data-test="error"]`),
		logo:          b.Page.Locator(".login_logo"),
	}
}

func (p *LoginPage) Goto() error {
	if err := p.Navigate("/"); err != nil {
		return err
	}
	if err := p.WaitForPageLoad(); err != nil {
		return err
	}
	return p.expect.Locator(p.loginButton).ToBeVisible()
}

// ExpectsNavigation reports whether submitting these credentials should leave
// the login page.
func ExpectsNavigation(username string, password string) bool {
	return username != "" && password != "" && username != LockedOutUsername
}

func (p *LoginPage) Login(username string, password string) error {
	if err := p.usernameInput.Fill(username); err != nil {
		return err
	}
	if err := p.passwordInput.Fill(password); err != nil {
		return err
	}

	if !ExpectsNavigation(username, password) {
		return p.loginButton.Click()
	}
	if _, err := p.Page.ExpectNavigation(func() error {
		return p.loginButton.Click()
	}, playwright.PageExpectNavigationOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		p.Logger.Warn("navigation after login did not complete, clicking again", "username", username, "error", err)
		return p.loginButton.Click()
	}
	return nil
}

func (p *LoginPage) ErrorMessage() (string, error) {
	if err := p.expect.Locator(p.errorMessage).ToBeVisible(playwright.LocatorAssertionsToBeVisibleOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		return "", err
	}
	return p.Text(p.errorMessage)
}

func (p *LoginPage) IsErrorDisplayed() (bool, error) {
	return p.errorMessage.IsVisible()
}

func (p *LoginPage) LoginAndVerifyRedirect(username string, password string, redirectPath string) error {
	if err := p.Login(username, password); err != nil {
		return err
	}
	if err := p.Page.WaitForURL("**"+redirectPath, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		return err
	}
	if url := p.URL(); !strings.Contains(url, redirectPath) {
		return fmt.Errorf("expected to be redirected to %s, got %s", redirectPath, url)
	}
	return nil
}

// VerifyLoginFailure logs in expecting an error. An empty expectedError only
// checks that some error is shown.
func (p *LoginPage) VerifyLoginFailure(username string, password string, expectedError string) error {
	if err := p.Login(username, password); err != nil {
		return err
	}
	message, err := p.ErrorMessage()
	if err != nil {
		return err
	}
	if expectedError != "" && !strings.Contains(message, expectedError) {
		return fmt.Errorf("expected login error to contain %q, got %q", expectedError, message)
	}
	return nil
}

func (p *LoginPage) ClearForm() error {
	if err := p.usernameInput.Clear(); err != nil {
		return err
	}
	return p.passwordInput.Clear()
}

func (p *LoginPage) IsLoaded() (bool, error) {
	for _, l := range []playwright.Locator{p.loginButton, p.usernameInput, p.passwordInput} {
		visible, err := l.IsVisible()
		if err != nil || !visible {
			return false, err
		}
	}
	return true, nil
}

func (p *LoginPage) VerifyFormElements() error {
	for _, l := range []playwright.Locator{p.usernameInput, p.passwordInput, p.loginButton, p.logo} {
		if err := p.expect.Locator(l).ToBeVisible(); err != nil {
			return err
		}
	}
	return nil
}
