// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validateHTTPURL checks scheme and host. Paths are allowed; query strings are not.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}
	return nil
}

// validateWarehouseHostname rejects values that are URLs rather than hosts.
func validateWarehouseHostname(host string) error {
	if strings.Contains(host, "://") {
		return fmt.Errorf("WAREHOUSE_HOSTNAME must be a bare hostname, remove the scheme: %s", host)
	}
	if strings.ContainsAny(host, "/?# ") {
		return fmt.Errorf("WAREHOUSE_HOSTNAME must be a bare hostname, got: %s", host)
	}
	return nil
}

// validateHTTPPath requires the /<database>/<schema> form.
func validateHTTPPath(path string) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("WAREHOUSE_HTTP_PATH must start with '/', got: %s", path)
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("WAREHOUSE_HTTP_PATH must be /<database>/<schema>, got: %s", path)
	}
	return nil
}
