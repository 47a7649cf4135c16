// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package config

import (
	"fmt"

	"github.com/tomtom215/vendorbase/internal/validation"
)

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if err := c.validateWarehouse(); err != nil {
		return err
	}
	return c.validateLocal()
}

// validateWarehouse applies only when the remote backend is selected.
func (c *Config) validateWarehouse() error {
	if c.Local.Enabled {
		return nil
	}

	w := c.Warehouse
	if w.Hostname == "" {
		return fmt.Errorf("WAREHOUSE_HOSTNAME is required unless USE_LOCAL_DB=true")
	}
	if err := validateWarehouseHostname(w.Hostname); err != nil {
		return err
	}
	if w.HTTPPath == "" {
		return fmt.Errorf("WAREHOUSE_HTTP_PATH is required unless USE_LOCAL_DB=true")
	}
	if err := validateHTTPPath(w.HTTPPath); err != nil {
		return err
	}

	if (w.ClientID == "") != (w.ClientSecret == "") {
		return fmt.Errorf("WAREHOUSE_CLIENT_ID and WAREHOUSE_CLIENT_SECRET must be set together")
	}
	if w.TokenURL != "" {
		if err := validateHTTPURL(w.TokenURL, "WAREHOUSE_TOKEN_URL"); err != nil {
			return err
		}
	}
	if w.AuthMethod() == "" {
		return fmt.Errorf("no warehouse credentials: set WAREHOUSE_ACCESS_TOKEN, WAREHOUSE_CLIENT_ID/WAREHOUSE_CLIENT_SECRET, or WAREHOUSE_HOST_TOKEN_PATH")
	}
	return nil
}

func (c *Config) validateLocal() error {
	if !c.Local.Enabled {
		return nil
	}
	if c.Local.Path == "" {
		return fmt.Errorf("LOCAL_DB_PATH is required when USE_LOCAL_DB=true")
	}
	return nil
}
