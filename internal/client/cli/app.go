package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/api"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
)

// API is the part of the server API the CLI talks to.
type API interface {
	Register(ctx context.Context, req api.RegisterRequest) (*api.Session, error)
	Login(ctx context.Context, email, password string) (*api.Session, error)
	Me(ctx context.Context, token string) (*api.Session, error)
	Ping(ctx context.Context) error
}

// newAPI is a test seam for building the HTTP client from config.
var newAPI = func(cfg *config.Config) (API, error) {
	return api.NewClient(cfg.ServerURL, cfg.RequestTimeout, api.WithRetries(cfg.Retries, 200*time.Millisecond))
}

type App struct {
	config *config.Config
	api    API
	tokens *TokenStore
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(cfg *config.Config, client API, in io.Reader, out io.Writer) *App {
	return &App{
		config: cfg,
		api:    client,
		tokens: NewTokenStore(cfg.TokenFile),
		in:     in,
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (a *App) Register(ctx context.Context) error {
	var req api.RegisterRequest
	var err error

	prompts := []struct {
		label string
		dst   *string
	}{
		{"Username", &req.UserName},
		{"Email", &req.Email},
		{"First name", &req.FirstName},
		{"Last name", &req.LastName},
		{"Phone number (optional)", &req.PhoneNumber},
	}
	for _, p := range prompts {
		if *p.dst, err = GetSimpleText(a.reader, p.label, a.out); err != nil {
			return err
		}
	}

	password, err := a.newPassword()
	if err != nil {
		return err
	}
	req.Password = password

	s, err := a.api.Register(ctx, req)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	if err := a.tokens.Save(s.Token); err != nil {
		return err
	}
	a.printSession(s)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.in, a.reader, "Password", a.out)
	if err != nil {
		return err
	}

	s, err := a.api.Login(ctx, email, string(password))
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := a.tokens.Save(s.Token); err != nil {
		return err
	}
	a.printSession(s)
	return nil
}

func (a *App) Me(ctx context.Context) error {
	token, err := a.tokens.Load()
	if err != nil {
		return err
	}

	s, err := a.api.Me(ctx, token)
	if errors.Is(err, api.ErrUnauthorized) {
		return fmt.Errorf("session is no longer valid, run 'login' again: %w", err)
	}
	if err != nil {
		return err
	}

	a.printSession(s)
	return nil
}

func (a *App) Logout() error {
	if err := a.tokens.Remove(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Ping(ctx context.Context) error {
	if err := a.api.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s is up\n", a.config.ServerURL)
	return nil
}

// newPassword asks for a password twice. The result is a plain string since
// the request body needs one anyway.
func (a *App) newPassword() (string, error) {
	password, err := GetPassword(a.in, a.reader, "Password", a.out)
	if err != nil {
		return "", err
	}

	confirm, err := GetPassword(a.in, a.reader, "Repeat password", a.out)
	if err != nil {
		return "", err
	}

	if string(password) != string(confirm) {
		return "", errors.New("passwords do not match")
	}
	return string(password), nil
}

func (a *App) printSession(s *api.Session) {
	fmt.Fprintf(a.out, "Signed in as %s <%s>\n", s.UserName, s.Email)
	if len(s.Roles) > 0 {
		fmt.Fprintf(a.out, "Roles: %s\n", strings.Join(s.Roles, ", "))
	}
	if s.ExpiresOn != nil {
		fmt.Fprintf(a.out, "Token expires: %s\n", s.ExpiresOn.Local().Format(time.RFC1123))
	}
}
