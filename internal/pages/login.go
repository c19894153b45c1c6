package pages

import (
	"context"
	"strings"
)

const (
	report_login_submit = "login_page.submit"
	report_go_home      = "page.go-home"
)

type Login struct {
	*Base
}

func NewLogin(base *Base) Login {
	return Login{Base: base}
}

func (l Login) Open(ctx context.Context) error {
	return l.Navigate(ctx, l.site.LoginURL)
}

// Login submits the credentials, it returns true when the shop redirected
// away from the login page.
func (l Login) Login(ctx context.Context, email, password string) (bool, error) {
	ctx, span := tracer.Start(ctx, "Login:Login")
	defer span.End()

	l.tel.ReportDebug("logging in", "email", email)

	selectors := l.site.Selectors
	err := l.Fill(ctx, selectors.EmailInput, email)
	if err != nil {
		l.tel.ReportBroken(report_login_submit, err)
		return false, err
	}
	err = l.Pause(ctx)
	if err != nil {
		return false, err
	}
	err = l.Fill(ctx, selectors.PasswordInput, password)
	if err != nil {
		l.tel.ReportBroken(report_login_submit, err)
		return false, err
	}
	err = l.Pause(ctx)
	if err != nil {
		return false, err
	}
	err = l.Click(ctx, selectors.LoginButton)
	if err != nil {
		l.tel.ReportBroken(report_login_submit, err)
		return false, err
	}
	err = l.WaitForNavigation(ctx, 0)
	if err != nil {
		return false, err
	}
	return !l.IsOnLoginPage(), nil
}

func (l Login) IsOnLoginPage() bool {
	return strings.Contains(strings.ToLower(l.URL()), "login")
}

func (l Login) GoToHome(ctx context.Context) (Home, error) {
	return goHome(ctx, l.Base)
}

// goHome clicks the logo, navigating to the base url when that fails.
func goHome(ctx context.Context, b *Base) (Home, error) {
	err := b.Click(ctx, b.site.Selectors.Logo)
	if err == nil {
		err = b.WaitForNavigation(ctx, 0)
	}
	if err != nil {
		if isContextErr(err) {
			return Home{}, err
		}
		b.tel.ReportWarning(report_go_home, err)
		err = b.Navigate(ctx, b.site.BaseURL)
	}
	return NewHome(b), err
}
