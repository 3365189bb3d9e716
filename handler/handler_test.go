package handler_test

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ad-monitor/config"
	"ad-monitor/handler"
	appmiddleware "ad-monitor/middleware"
	"ad-monitor/service"
	"ad-monitor/test/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}))
}

func newServer() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = appmiddleware.CustomHTTPErrorHandler(testLogger())
	return e
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthHandler_HandleHealth(t *testing.T) {
	tests := map[string]struct {
		driver       string
		pingErr      error
		wantDatabase string
		wantDBStatus string
	}{
		"sqlite reports database file": {
			driver:       config.StoreDriverSQLite,
			wantDatabase: "ads.db",
			wantDBStatus: "ok",
		},
		"postgres reports driver name": {
			driver:       config.StoreDriverPostgres,
			wantDatabase: "postgres",
			wantDBStatus: "ok",
		},
		"unreachable store is still up": {
			driver:       config.StoreDriverSQLite,
			pingErr:      errors.New("database is locked"),
			wantDatabase: "ads.db",
			wantDBStatus: "unavailable",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockStorePinger(ctrl)
			store.EXPECT().Ping(gomock.Any()).Return(tc.pingErr)

			manager := config.NewManager(filepath.Join(t.TempDir(), "config.json"), config.Default(), testLogger())
			h := handler.NewHealthHandler(manager, store, tc.driver, testLogger())

			e := newServer()
			e.GET("/health", h.HandleHealth)
			rec := serve(e, http.MethodGet, "/health", "")

			require.Equal(t, http.StatusOK, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, "up", body["status"])
			assert.Equal(t, tc.wantDatabase, body["database"])
			assert.Equal(t, tc.wantDBStatus, body["database_status"])
			assert.Contains(t, body, "uptime_secs")
			assert.GreaterOrEqual(t, body["uptime_secs"].(float64), 0.0)

			ts, ok := body["timestamp"].(string)
			require.True(t, ok)
			assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`, ts)
		})
	}
}

func TestFeedHandler_HandleRSS(t *testing.T) {
	const feed = `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel></channel></rss>`

	tests := map[string]struct {
		renderBody  []byte
		renderErr   error
		wantStatus  int
		wantType    string
		wantContent string
	}{
		"serves rendered feed": {
			renderBody:  []byte(feed),
			wantStatus:  http.StatusOK,
			wantType:    service.FeedContentType,
			wantContent: feed,
		},
		"store failure hides cause": {
			renderErr:   errors.New("no such table: ad_changes"),
			wantStatus:  http.StatusInternalServerError,
			wantType:    echo.MIMEApplicationJSON,
			wantContent: "Database error",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			renderer := mocks.NewMockFeedRenderer(ctrl)
			renderer.EXPECT().Render(gomock.Any()).Return(tc.renderBody, tc.renderErr)

			e := newServer()
			e.GET("/rss", handler.NewFeedHandler(renderer, testLogger()).HandleRSS)
			rec := serve(e, http.MethodGet, "/rss", "")

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), tc.wantType))
			assert.Contains(t, rec.Body.String(), tc.wantContent)
			assert.NotContains(t, rec.Body.String(), "no such table")
		})
	}
}

func TestConfigHandler_HandleGetConfig(t *testing.T) {
	cfg := config.Default()
	cfg.URLFilters["https://www.facebook.com/marketplace/item/search?query=bike"] = map[string][]string{
		"level1": {"road", "gravel"},
	}
	manager := config.NewManager(filepath.Join(t.TempDir(), "config.json"), cfg, testLogger())

	e := newServer()
	e.GET("/api/config", handler.NewConfigHandler(manager, testLogger()).HandleGetConfig)
	rec := serve(e, http.MethodGet, "/api/config", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got config.Config
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, cfg.Equal(&got))
}

func TestConfigHandler_HandleUpdateConfig(t *testing.T) {
	const validBody = `{
		"server_ip": "127.0.0.1",
		"server_port": 8080,
		"currency": "€",
		"refresh_interval_minutes": 5,
		"database_name": "ads.db",
		"url_filters": {
			"https://www.facebook.com/marketplace/berlin/search?query=bike": {"level1": ["road", "gravel"]}
		}
	}`

	tests := map[string]struct {
		body         string
		badPath      bool
		wantStatus   int
		wantKey      string
		wantContains string
		wantApplied  bool
	}{
		"valid document is saved and applied": {
			body:         validBody,
			wantStatus:   http.StatusOK,
			wantKey:      "message",
			wantContains: "Configuration saved successfully!",
			wantApplied:  true,
		},
		"invalid port is rejected": {
			body:         strings.Replace(validBody, `"server_port": 8080`, `"server_port": 0`, 1),
			wantStatus:   http.StatusBadRequest,
			wantKey:      "detail",
			wantContains: "server_port",
		},
		"malformed filter level is rejected": {
			body:         strings.Replace(validBody, `"level1"`, `"tier1"`, 1),
			wantStatus:   http.StatusBadRequest,
			wantKey:      "detail",
			wantContains: "tier1",
		},
		"malformed json is rejected": {
			body:         `{"server_port": `,
			wantStatus:   http.StatusBadRequest,
			wantKey:      "detail",
			wantContains: "Invalid request format",
		},
		"save failure keeps current document": {
			body:         validBody,
			badPath:      true,
			wantStatus:   http.StatusInternalServerError,
			wantKey:      "detail",
			wantContains: "failed to save config",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if tc.badPath {
				path = filepath.Join(t.TempDir(), "missing", "config.json")
			}
			manager := config.NewManager(path, config.Default(), testLogger())

			e := newServer()
			e.POST("/api/config", handler.NewConfigHandler(manager, testLogger()).HandleUpdateConfig)
			rec := serve(e, http.MethodPost, "/api/config", tc.body)

			assert.Equal(t, tc.wantStatus, rec.Code)
			body := decode(t, rec)
			assert.Contains(t, body[tc.wantKey], tc.wantContains)

			current := manager.Get()
			if tc.wantApplied {
				assert.Equal(t, 8080, current.ServerPort)
				assert.Equal(t, "€", current.Currency)
				assert.Equal(t, config.DefaultRetentionDays, current.RetentionDays, "omitted fields take defaults")

				saved, err := config.Load(path)
				require.NoError(t, err)
				assert.True(t, current.Equal(saved))
				return
			}
			assert.True(t, config.Default().Equal(current), "document must not change")
			if !tc.badPath {
				_, err := os.Stat(path)
				assert.True(t, os.IsNotExist(err), "nothing is written")
			}
		})
	}
}

func TestPageHandler_HandleEditConfig(t *testing.T) {
	e := newServer()
	e.GET("/edit", handler.NewPageHandler(testLogger()).HandleEditConfig)
	rec := serve(e, http.MethodGet, "/edit", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML))
	assert.Contains(t, rec.Body.String(), "Ad Monitor Configuration")
	assert.Contains(t, rec.Body.String(), "/static/js/edit_config.js")
}
