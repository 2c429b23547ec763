/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package swis is a minimal client for the SolarWinds Information Service
// JSON query API.
package swis

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/carverauto/configguard/pkg/config"
	"github.com/carverauto/configguard/pkg/models"
)

const maxErrorBody = 512

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client queries a SWIS endpoint with HTTP basic authentication.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient HTTPClient
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL overrides the endpoint derived from the server name, e.g.
// "https://orion:17774/SolarWinds/InformationService/v3/Json".
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

type queryRequest struct {
	Query      string                 `json:"query"`
	Parameters map[string]interface{} `json:"parameters"`
}

type queryResponse struct {
	Results json.RawMessage `json:"results"`
}

// NewClient creates a client for the SWIS instance on server.
func NewClient(server, username, password string, cfg config.SWISConfig, opts ...Option) *Client {
	port := cfg.Port
	if port == 0 {
		port = config.DefaultSWISPort
	}

	c := &Client{
		baseURL:  fmt.Sprintf("https://%s/SolarWinds/InformationService/v3/Json", net.JoinHostPort(server, strconv.Itoa(port))),
		username: username,
		password: password,
		//nolint:gosec // SWIS ships with self-signed certificates; verification is opt-in
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.VerifyTLS,
				},
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Query runs a SWQL query and decodes the "results" array into out.
func (c *Client) Query(ctx context.Context, query string, params map[string]interface{}, out interface{}) error {
	if params == nil {
		params = map[string]interface{}{}
	}

	body, err := json.Marshal(queryRequest{Query: query, Parameters: params})
	if err != nil {
		return fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/Query", bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %d", errAuthFailed, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return fmt.Errorf("%w: %d, response: %s", errUnexpectedStatusCode,
			resp.StatusCode, string(bodyBytes))
	}

	var qr queryResponse

	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(qr.Results) == 0 || string(qr.Results) == "null" {
		return nil
	}

	if err := json.Unmarshal(qr.Results, out); err != nil {
		return fmt.Errorf("failed to parse results: %w", err)
	}

	return nil
}

// QueryNodes runs a node query whose rows carry NodeID, DisplayName and IPAddress.
func (c *Client) QueryNodes(ctx context.Context, query string) ([]models.MonitoredNode, error) {
	var nodes []models.MonitoredNode

	if err := c.Query(ctx, query, nil, &nodes); err != nil {
		return nil, err
	}

	return nodes, nil
}
