package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"polli-ahaar/internal/auth"
	"polli-ahaar/internal/cache"
	"polli-ahaar/internal/models"
	"polli-ahaar/internal/routes"
)

const (
	adminEmail = "admin@example.com"
	buyerEmail = "buyer@example.com"
	otherEmail = "other@example.com"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router   http.Handler
	issuer   *auth.Issuer
	users    *fakeUsers
	products *fakeProducts
	orders   *fakeOrders
	reviews  *fakeReviews
	carts    *fakeCarts
	stats    *fakeStats
	mailer   *fakeMailer
	cache    *cache.Cache

	admin *models.User
	buyer *models.User
	other *models.User
}

type envOption func(*routes.Dependencies)

func withLogger(log *zap.Logger) envOption {
	return func(d *routes.Dependencies) { d.Log = log }
}

func withoutPriceCheck() envOption {
	return func(d *routes.Dependencies) { d.VerifyPrices = false }
}

func withoutMailer() envOption {
	return func(d *routes.Dependencies) { d.Mailer = nil }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	e := &testEnv{
		issuer:   auth.NewIssuer("test-secret", time.Hour),
		users:    newFakeUsers(),
		products: newFakeProducts(),
		orders:   newFakeOrders(),
		reviews:  &fakeReviews{},
		carts:    &fakeCarts{},
		stats:    &fakeStats{stats: &models.AdminStats{}},
		mailer:   &fakeMailer{},
		cache:    cache.New(time.Minute, time.Minute),
	}
	t.Cleanup(e.cache.Stop)

	e.admin = e.users.add(adminEmail, models.RoleAdmin)
	e.buyer = e.users.add(buyerEmail, models.RoleUser)
	e.other = e.users.add(otherEmail, models.RoleUser)

	deps := routes.Dependencies{
		Users:        e.users,
		Products:     e.products,
		Orders:       e.orders,
		Reviews:      e.reviews,
		Carts:        e.carts,
		Stats:        e.stats,
		Tokens:       e.issuer,
		Mailer:       e.mailer,
		Cache:        e.cache,
		VerifyPrices: true,
		CORSOrigins:  []string{"http://localhost:5173"},
		Log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	e.router = routes.NewRouter(deps)
	return e
}

// do sends a request as email. An empty email sends no token.
func (e *testEnv) do(t *testing.T, method, path, email string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		token, err := e.issuer.Issue(email)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type message struct {
	Message string `json:"message"`
}

func messageOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[message](t, w).Message
}

type listBody[T any] struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"pages"`
	Items []T   `json:"items"`
}

func riceProduct(stock int) models.Product {
	return models.Product{
		Name:     "Chinigura Rice",
		Category: "rice",
		Image:    "https://img.example.com/rice.jpg",
		Variants: []models.Variant{
			{Label: "1 kg", Unit: "kg", Qty: 1, Price: 140, Stock: stock},
			{Label: "5 kg", Unit: "kg", Qty: 5, Price: 650, Stock: stock},
		},
	}
}
