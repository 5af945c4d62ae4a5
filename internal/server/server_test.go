// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mia-platform/ingest/internal/metrics"
	"github.com/mia-platform/ingest/internal/queue"
)

func newTestServer(t *testing.T, m *metrics.Metrics) *impServer {
	t.Helper()

	srv, err := NewServer(t.Context(), m)
	require.NoError(t, err)
	return srv.(*impServer)
}

func TestStatusRoutes(t *testing.T) {
	srv := newTestServer(t, metrics.New())

	testCases := map[string]struct {
		path           string
		ready          bool
		expectedStatus int
		expectedBody   string
	}{
		"healthz": {
			path:           healthzPath,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"name":"ingest","status":"OK","version":"DEV"}`,
		},
		"not ready": {
			path:           readyPath,
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"name":"ingest","status":"KO","version":"DEV"}`,
		},
		"ready": {
			path:           readyPath,
			ready:          true,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"name":"ingest","status":"OK","version":"DEV"}`,
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			srv.SetReady(test.ready)

			response, err := srv.app.Test(httptest.NewRequest(http.MethodGet, test.path, nil))
			require.NoError(t, err)
			defer response.Body.Close()

			body, err := io.ReadAll(response.Body)
			require.NoError(t, err)
			assert.Equal(t, test.expectedStatus, response.StatusCode)
			assert.JSONEq(t, test.expectedBody, string(body))
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	t.Run("serves the registry", func(t *testing.T) {
		m := metrics.New()
		m.DeliveryProcessed()
		srv := newTestServer(t, m)

		response, err := srv.app.Test(httptest.NewRequest(http.MethodGet, metricsPath, nil))
		require.NoError(t, err)
		defer response.Body.Close()

		body, err := io.ReadAll(response.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, response.StatusCode)
		assert.Contains(t, string(body), "ingest_deliveries_total 1")
	})

	t.Run("not registered without metrics", func(t *testing.T) {
		srv := newTestServer(t, nil)

		response, err := srv.app.Test(httptest.NewRequest(http.MethodGet, metricsPath, nil))
		require.NoError(t, err)
		defer response.Body.Close()
		assert.Equal(t, http.StatusNotFound, response.StatusCode)
	})
}

func TestHandleDeliveries(t *testing.T) {
	testCases := map[string]struct {
		body             string
		expectedStatus   int
		expectedDelivery queue.Delivery
		expectedBody     string
	}{
		"failed messages are reported": {
			body: `{"Records":[
				{"messageId":"m1","body":"a","messageAttributes":{"Table":{"stringValue":"people"},"Index":{"stringValue":"idx1"}}},
				{"messageId":"m2","body":"b","messageAttributes":{}}
			]}`,
			expectedStatus: http.StatusOK,
			expectedDelivery: queue.Delivery{
				{ID: "m1", Body: "a", Attributes: map[string]string{"Table": "people", "Index": "idx1"}},
				{ID: "m2", Body: "b", Attributes: map[string]string{}},
			},
			expectedBody: `{"batchItemFailures":[{"itemIdentifier":"m2"}]}`,
		},
		"empty event": {
			body:             `{"Records":[]}`,
			expectedStatus:   http.StatusOK,
			expectedDelivery: queue.Delivery{},
			expectedBody:     `{"batchItemFailures":[]}`,
		},
		"malformed event": {
			body:           `{"Records":`,
			expectedStatus: http.StatusBadRequest,
		},
		"record without id": {
			body:           `{"Records":[{"body":"a"}]}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			srv := newTestServer(t, nil)

			var received queue.Delivery
			called := false
			srv.HandleDeliveries(func(ctx context.Context, delivery queue.Delivery) queue.Result {
				called = true
				received = delivery
				failed := make([]string, 0)
				for _, msg := range delivery {
					if msg.Attributes[queue.AttributeTable] == "" {
						failed = append(failed, msg.ID)
					}
				}
				return queue.Result{Failed: failed}
			})

			request := httptest.NewRequest(http.MethodPost, deliveriesPath, strings.NewReader(test.body))
			request.Header.Set("Content-Type", "application/json")
			response, err := srv.app.Test(request)
			require.NoError(t, err)
			defer response.Body.Close()

			body, err := io.ReadAll(response.Body)
			require.NoError(t, err)
			assert.Equal(t, test.expectedStatus, response.StatusCode)

			if test.expectedStatus != http.StatusOK {
				assert.False(t, called)
				payload := make(map[string]any)
				require.NoError(t, json.Unmarshal(body, &payload))
				assert.Equal(t, float64(http.StatusBadRequest), payload["statusCode"])
				assert.Contains(t, payload["message"], queue.ErrMalformedEvent.Error())
				return
			}

			assert.Equal(t, test.expectedDelivery, received)
			assert.JSONEq(t, test.expectedBody, string(body))
		})
	}
}

func freePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())
	return port
}

func TestStartServer(t *testing.T) {
	port := freePort(t)
	t.Setenv("HTTP_HOST", "127.0.0.1")
	t.Setenv("HTTP_PORT", strconv.Itoa(port))

	srv := newTestServer(t, nil)
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	address := "http://127.0.0.1:" + strconv.Itoa(port) + healthzPath
	assert.Eventually(t, func() bool {
		request, err := http.NewRequestWithContext(t.Context(), http.MethodGet, address, nil)
		if err != nil {
			return false
		}
		response, err := http.DefaultClient.Do(request)
		if err != nil {
			return false
		}
		defer response.Body.Close()
		return response.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, srv.Stop())
	require.NoError(t, <-errChan)
}

func TestNewServerInvalidConfig(t *testing.T) {
	t.Setenv("HTTP_PORT", "0")

	srv, err := NewServer(t.Context(), nil)
	require.ErrorIs(t, err, ErrEnvVariablesNotValid)
	assert.Nil(t, srv)
}
