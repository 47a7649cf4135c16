// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package database

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sf "github.com/snowflakedb/gosnowflake"

	"github.com/tomtom215/vendorbase/internal/config"
)

func TestNewTokenSource_StaticToken(t *testing.T) {
	ts, err := newTokenSource(config.WarehouseConfig{
		AccessToken:   "static-abc",
		ClientID:      "ignored",
		ClientSecret:  "ignored",
		HostTokenPath: "/nonexistent",
	})
	if err != nil {
		t.Fatalf("newTokenSource() error = %v", err)
	}
	tok, err := ts.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok.AccessToken != "static-abc" {
		t.Errorf("AccessToken = %q, want static-abc", tok.AccessToken)
	}
}

func TestNewTokenSource_ClientCredentials(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "svc" || pass != "s3cret" {
			http.Error(w, "bad client", http.StatusUnauthorized)
			return
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
			http.Error(w, "bad grant", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"minted-1","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	ts, err := newTokenSource(config.WarehouseConfig{
		ClientID:      "svc",
		ClientSecret:  "s3cret",
		TokenURL:      srv.URL + "/oauth/token-request",
		HostTokenPath: "/nonexistent",
	})
	if err != nil {
		t.Fatalf("newTokenSource() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		tok, err := ts.Token()
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if tok.AccessToken != "minted-1" {
			t.Errorf("AccessToken = %q, want minted-1", tok.AccessToken)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("token endpoint called %d times, want 1 (token reused until expiry)", n)
	}
}

func TestNewTokenSource_HostToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("host-token-1\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ts, err := newTokenSource(config.WarehouseConfig{HostTokenPath: path})
	if err != nil {
		t.Fatalf("newTokenSource() error = %v", err)
	}
	tok, err := ts.Token()
	if err != nil || tok.AccessToken != "host-token-1" {
		t.Fatalf("Token() = %v, %v; want host-token-1", tok, err)
	}

	// Rotation is picked up on the next call.
	if err := os.WriteFile(path, []byte("host-token-2"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if tok, _ := ts.Token(); tok == nil || tok.AccessToken != "host-token-2" {
		t.Errorf("Token() after rotation = %v, want host-token-2", tok)
	}

	if err := os.WriteFile(path, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := ts.Token(); err == nil {
		t.Error("Expected error for empty token file")
	}
}

func TestNewTokenSource_None(t *testing.T) {
	if _, err := newTokenSource(config.WarehouseConfig{}); !errors.Is(err, errNoCredentials) {
		t.Errorf("newTokenSource() error = %v, want errNoCredentials", err)
	}
}

func TestSnowflakeConfig(t *testing.T) {
	cfg := snowflakeConfig(config.WarehouseConfig{
		Hostname:     "acme-xy123.snowflakecomputing.com",
		HTTPPath:     "/procurement/core",
		Warehouse:    "REPORTING_WH",
		Role:         "VENDORBASE_APP",
		LoginTimeout: 45 * time.Second,
	})

	if cfg.Account != "acme-xy123" {
		t.Errorf("Account = %q, want acme-xy123", cfg.Account)
	}
	if cfg.Host != "acme-xy123.snowflakecomputing.com" || cfg.Port != 443 || cfg.Protocol != "https" {
		t.Errorf("Unexpected endpoint %s://%s:%d", cfg.Protocol, cfg.Host, cfg.Port)
	}
	if cfg.Database != "procurement" || cfg.Schema != "core" {
		t.Errorf("Database/Schema = %q/%q", cfg.Database, cfg.Schema)
	}
	if cfg.Warehouse != "REPORTING_WH" || cfg.Role != "VENDORBASE_APP" {
		t.Errorf("Warehouse/Role = %q/%q", cfg.Warehouse, cfg.Role)
	}
	if cfg.Authenticator != sf.AuthTypeOAuth {
		t.Errorf("Authenticator = %v, want OAuth", cfg.Authenticator)
	}
	if cfg.Token != "" {
		t.Error("Token must be filled per connect, not at build time")
	}
	if cfg.LoginTimeout != 45*time.Second {
		t.Errorf("LoginTimeout = %v", cfg.LoginTimeout)
	}
}

func TestWarehouseConnector_TokenFailureHidesSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client","client_secret":"s3cret"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	conn, err := newWarehouseConnector(config.WarehouseConfig{
		Hostname:     "acme.snowflakecomputing.com",
		HTTPPath:     "/procurement/core",
		ClientID:     "svc",
		ClientSecret: "s3cret",
		TokenURL:     srv.URL,
	})
	if err != nil {
		t.Fatalf("newWarehouseConnector() error = %v", err)
	}

	_, err = conn.Connect(context.Background())
	if err == nil {
		t.Fatal("Expected token failure")
	}
	if strings.Contains(err.Error(), "s3cret") {
		t.Errorf("Connect() error leaked the secret: %v", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("Connect() error = %v, want the endpoint status", err)
	}
}
