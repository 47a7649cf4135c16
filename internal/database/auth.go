// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"strings"

	sf "github.com/snowflakedb/gosnowflake"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tomtom215/vendorbase/internal/config"
)

// errNoCredentials is returned when no auth method is configured.
var errNoCredentials = errors.New("no warehouse credentials configured")

// newTokenSource picks the credential source: static token, then client
// credentials, then the host token file.
func newTokenSource(w config.WarehouseConfig) (oauth2.TokenSource, error) {
	switch w.AuthMethod() {
	case config.AuthStaticToken:
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: w.AccessToken}), nil
	case config.AuthClientCredentials:
		cc := &clientcredentials.Config{
			ClientID:     w.ClientID,
			ClientSecret: w.ClientSecret,
			TokenURL:     w.EffectiveTokenURL(),
			Scopes:       w.Scopes,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		// Refreshes transparently once the cached token expires.
		return cc.TokenSource(context.Background()), nil
	case config.AuthHostToken:
		return hostTokenSource{path: w.HostTokenPath}, nil
	default:
		return nil, errNoCredentials
	}
}

// hostTokenSource reads a token file that the hosting platform rotates.
// The file is read on every call so a rotated token is picked up on the next
// connect.
type hostTokenSource struct {
	path string
}

func (s hostTokenSource) Token() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read host token file %s: %w", s.path, err)
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return nil, fmt.Errorf("host token file %s is empty", s.path)
	}
	return &oauth2.Token{AccessToken: tok}, nil
}

// warehouseConnector mints a fresh OAuth token for every physical session and
// hands the connect to gosnowflake.
type warehouseConnector struct {
	base   sf.Config
	tokens oauth2.TokenSource
}

// newWarehouseConnector builds the connector for cfg. No network I/O happens
// here except what the token source does lazily.
func newWarehouseConnector(w config.WarehouseConfig) (*warehouseConnector, error) {
	tokens, err := newTokenSource(w)
	if err != nil {
		return nil, err
	}
	return &warehouseConnector{
		base:   snowflakeConfig(w),
		tokens: tokens,
	}, nil
}

// snowflakeConfig maps the (hostname, http_path) target onto gosnowflake
// settings. The token is filled in per connect.
func snowflakeConfig(w config.WarehouseConfig) sf.Config {
	host := strings.TrimSpace(w.Hostname)
	account, _, _ := strings.Cut(host, ".snowflakecomputing.com")
	return sf.Config{
		Account:       account,
		Host:          host,
		Port:          443,
		Protocol:      "https",
		User:          w.User,
		Database:      w.Database(),
		Schema:        w.Schema(),
		Warehouse:     w.Warehouse,
		Role:          w.Role,
		Authenticator: sf.AuthTypeOAuth,
		LoginTimeout:  w.LoginTimeout,
	}
}

// Connect implements driver.Connector.
func (c *warehouseConnector) Connect(ctx context.Context) (driver.Conn, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		// Token endpoint errors can echo the client secret back.
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return nil, fmt.Errorf("failed to obtain warehouse token: token endpoint returned %s", re.Response.Status)
		}
		return nil, fmt.Errorf("failed to obtain warehouse token: %w", err)
	}

	cfg := c.base
	cfg.Token = tok.AccessToken
	return sf.NewConnector(sf.SnowflakeDriver{}, cfg).Connect(ctx)
}

// Driver implements driver.Connector.
func (c *warehouseConnector) Driver() driver.Driver {
	return sf.SnowflakeDriver{}
}
