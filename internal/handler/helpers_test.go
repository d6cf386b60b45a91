package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/infra/events"
	"storefront/internal/infra/kv"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	repo "storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testSecret        = "test-secret"
	testAdminEmail    = "owner@example.com"
	testAdminPassword = "correct-horse-battery"
)

type testApp struct {
	h        http.Handler
	cfg      config.Config
	products *memProducts
	users    *memUsers
	audit    *memAudit
	catalog  *stubCatalog
	adminID  int64
}

type appOption func(*appDeps)

type appDeps struct {
	cfg      config.Config
	products repo.ProductRepository
	users    repo.UserRepository
	audit    repo.AuditLogRepository
	srvOpts  []server.Option
}

func withServerOptions(opts ...server.Option) appOption {
	return func(d *appDeps) { d.srvOpts = append(d.srvOpts, opts...) }
}

func withConfig(cfg config.Config) appOption {
	return func(d *appDeps) { d.cfg = cfg }
}

func withProducts(p repo.ProductRepository) appOption {
	return func(d *appDeps) { d.products = p }
}

// 接続情報なしで起動した時と同じ組み合わせ
func withUnconfiguredStore() appOption {
	return func(d *appDeps) {
		d.cfg.DatabaseURL = ""
		d.products = infraRepo.NewUnconfiguredProductRepository()
		d.users = infraRepo.UnconfiguredUserRepository{}
		d.audit = infraRepo.UnconfiguredAuditLogRepository{}
	}
}

func seedProducts() []model.Product {
	img := "https://img/1.jpg"
	return []model.Product{
		{Title: "Backpack", Price: decimal.RequireFromString("109.95"), Category: "men's clothing", Image: &img},
		{Title: "Ring", Price: decimal.RequireFromString("10.00"), Category: "jewelery"},
		{Title: "Monitor", Price: decimal.RequireFromString("599.00"), Category: "electronics"},
	}
}

// 全ルートを組んだサーバー（DBはメモリ）
func newTestApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()

	mem := newMemProducts(seedProducts()...)
	users := newMemUsers()
	audit := &memAudit{}
	d := appDeps{
		cfg: config.Config{
			Port:        "8080",
			DatabaseURL: "postgres://test",
			CatalogURL:  config.DefaultCatalogURL,
			JWTSecret:   testSecret,
			CartTTL:     time.Hour,
		},
		products: mem,
		users:    users,
		audit:    audit,
	}
	for _, o := range opts {
		o(&d)
	}

	lg := logger.NewNop()
	cat := &stubCatalog{}

	clock := auth.RealClock{}
	_, err := auth.NewEnsureAdminUsecase(users, auth.NewBcryptPasswordHasher(4), clock).
		Execute(context.Background(), auth.EnsureAdminInput{Email: testAdminEmail, Password: testAdminPassword})
	require.NoError(t, err)
	admin, err := users.FindByEmail(context.Background(), testAdminEmail)
	require.NoError(t, err)

	productUC := usecase.NewProductUsecase(d.products, d.audit, lg)
	hs := server.Handlers{
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC, usecase.NewAuditUsecase(d.audit, lg)),
		Cart:         handler.NewCartHandler(usecase.NewCartUsecase(kv.NewMemorySlotStorage(), d.products, lg), d.cfg.CartTTL, false),
		Import:       handler.NewImportHandler(usecase.NewImportUsecase(d.cfg, cat, d.products, d.audit, events.NopPublisher{}, lg)),
		Status:       handler.NewStatusHandler(usecase.NewStatusUsecase(d.products, lg)),
		Auth: handler.NewAuthHandler(
			auth.NewLoginUsecase(d.users, auth.NewBcryptPasswordVerifier(), auth.NewJWTIssuer(testSecret, time.Hour), clock),
			auth.NewLogoutUsecase(d.users),
			lg,
		),
	}

	srv := server.New(d.cfg, lg, d.users, hs, d.srvOpts...)
	return &testApp{
		h:        srv.Handler(),
		cfg:      d.cfg,
		products: mem,
		users:    users,
		audit:    audit,
		catalog:  cat,
		adminID:  admin.ID,
	}
}

type reqOpt func(*http.Request)

func bearer(token string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(c *http.Cookie) reqOpt {
	return func(r *http.Request) { r.AddCookie(c) }
}

func (a *testApp) do(t *testing.T, method, path string, body any, opts ...reqOpt) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

// ログインAPIを通さずに発行した管理者トークン
func adminToken(t *testing.T, userID int64) string {
	t.Helper()
	tok, _, err := auth.NewJWTIssuer(testSecret, time.Hour).Issue(userID, model.RoleAdmin, 0, time.Now())
	require.NoError(t, err)
	return tok
}

// 管理者トークン（ログインAPI経由）
func (a *testApp) login(t *testing.T) string {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    testAdminEmail,
		"password": testAdminPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out auth.LoginOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token.AccessToken)
	return out.Token.AccessToken
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func cartCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == handler.CartSessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", handler.CartSessionCookie)
	return nil
}
