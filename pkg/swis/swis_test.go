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

package swis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carverauto/configguard/pkg/config"
	"github.com/carverauto/configguard/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testQuery = "SELECT Nodes.NodeID, Nodes.DisplayName, Nodes.IPAddress FROM Orion.Nodes"

func TestNewClientBaseURL(t *testing.T) {
	c := NewClient("orion.example.com", "user", "pass", config.SWISConfig{})

	assert.Equal(t, "https://orion.example.com:17774/SolarWinds/InformationService/v3/Json", c.baseURL)
}

func TestQueryNodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/Query", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "user", user)
		assert.Equal(t, "pass", pass)

		var body queryRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, testQuery, body.Query)
		assert.NotNil(t, body.Parameters)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"NodeID":1,"DisplayName":"router1","IPAddress":"10.0.0.1"},
			{"NodeID":7,"DisplayName":"switch7","IPAddress":"10.0.0.7"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient("ignored", "user", "pass", config.SWISConfig{}, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	nodes, err := c.QueryNodes(context.Background(), testQuery)
	require.NoError(t, err)

	assert.Equal(t, []models.MonitoredNode{
		{NodeID: 1, DisplayName: "router1", IPAddress: "10.0.0.1"},
		{NodeID: 7, DisplayName: "switch7", IPAddress: "10.0.0.7"},
	}, nodes)
}

func TestQueryNodesEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := NewClient("ignored", "user", "pass", config.SWISConfig{}, WithBaseURL(srv.URL))

	nodes, err := c.QueryNodes(context.Background(), testQuery)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestQueryErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: errAuthFailed},
		{name: "forbidden", status: http.StatusForbidden, wantErr: errAuthFailed},
		{name: "server error", status: http.StatusInternalServerError, body: "query failed", wantErr: errUnexpectedStatusCode, wantMsg: "query failed"},
		{name: "bad json", status: http.StatusOK, body: "{", wantMsg: "failed to parse response"},
		{name: "bad results", status: http.StatusOK, body: `{"results":{"NodeID":1}}`, wantMsg: "failed to parse results"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient("ignored", "user", "pass", config.SWISConfig{}, WithBaseURL(srv.URL))

			_, err := c.QueryNodes(context.Background(), testQuery)
			require.Error(t, err)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestQueryTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient("ignored", "user", "pass", config.SWISConfig{}, WithBaseURL(url))

	_, err := c.QueryNodes(context.Background(), testQuery)
	require.Error(t, err)
}
