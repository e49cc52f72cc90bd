package transporthttp

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propmarket/internal/audit"
	"propmarket/internal/customer"
	"propmarket/internal/identity"
	"propmarket/internal/identity/revocation"
	"propmarket/internal/jwttoken"
	"propmarket/internal/platform/metrics"
	"propmarket/internal/property"
	"propmarket/internal/registrar"
	"propmarket/internal/seller"
	"propmarket/pkg/domain"
	"propmarket/pkg/password"
	"propmarket/pkg/testutil"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

type testServer struct {
	handler    http.Handler
	identities *identity.MemoryStore
	customers  *customer.MemoryStore
	sellers    *seller.MemoryStore
	properties *property.MemoryStore
	tokens     *jwttoken.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New(prometheus.NewRegistry())
	tokens := jwttoken.New("test-signing-key", "propmarket-test", time.Hour)

	identityStore := identity.NewMemoryStore()
	customerStore := customer.NewMemoryStore()
	sellerStore := seller.NewMemoryStore()
	propertyStore := property.NewMemoryStore()
	auditPublisher := audit.NewStorePublisher(audit.NewMemoryStore())

	identitySvc := identity.NewService(identityStore, tokens,
		identity.WithLogger(log),
		identity.WithMetrics(m),
		identity.WithAuditPublisher(auditPublisher),
		identity.WithRevocationList(revocation.NewMemoryList()),
	)
	customerSvc := customer.NewService(customerStore, customer.WithLogger(log))
	sellerSvc := seller.NewService(sellerStore, seller.WithLogger(log), seller.WithMetrics(m))
	propertySvc := property.NewService(propertyStore, property.WithLogger(log))

	stores := registrar.Stores{Identities: identityStore, Customers: customerStore, Sellers: sellerStore}
	registrarSvc := registrar.New(registrar.NewMemoryTx(stores), stores,
		registrar.WithLogger(log),
		registrar.WithMetrics(m),
		registrar.WithAuditPublisher(auditPublisher),
		registrar.WithPropertyCounter(propertyStore),
	)

	handler := NewRouter(Deps{
		Users:      NewUserHandler(identitySvc, log),
		Customers:  NewCustomerHandler(registrarSvc, customerSvc, identitySvc, log),
		Sellers:    NewSellerHandler(registrarSvc, sellerSvc, identitySvc, log),
		Properties: NewPropertyHandler(propertySvc, identitySvc, log),
		Logger:     log,
		Metrics:    m,
	})

	return &testServer{
		handler:    handler,
		identities: identityStore,
		customers:  customerStore,
		sellers:    sellerStore,
		properties: propertyStore,
		tokens:     tokens,
	}
}

// adminToken seeds an admin identity and mints a token for it.
func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	hash, err := password.Hash("admin-pass-123")
	require.NoError(t, err)
	ident, err := identity.New(domain.NewAccountID(), "Ops Admin", "ops@example.com", hash, domain.RoleAdmin, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.identities.Insert(t.Context(), ident))

	token, err := s.tokens.Generate(ident.ID, domain.RoleAdmin, time.Now())
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (*envelope, int) {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := testutil.DoRequest(s.handler, req)
	return testutil.UnmarshalResponse[envelope](t, rr), rr.Code
}

func customerPayload(emailAddr string) map[string]any {
	return map[string]any{
		"first_name": "Ada",
		"last_name":  "Okafor",
		"email":      emailAddr,
		"phone":      "+2348012345678",
		"address":    "12 Marina Road, Lagos",
		"password":   "s3cret-pass",
	}
}

func sellerPayload(emailAddr, username string) map[string]any {
	return map[string]any{
		"first_name":          "Bola",
		"last_name":           "Adeyemi",
		"email":               emailAddr,
		"phone":               "+2348098765432",
		"identification":      "NIN-29381840",
		"username":            username,
		"preferred_languages": []string{"English"},
		"password":            "s3cret-pass",
	}
}

func TestCustomerRegistrationLifecycle(t *testing.T) {
	srv := newTestServer(t)

	// Register.
	resp, code := srv.do(t, http.MethodPost, "/api/v1/customers", customerPayload("a@x.com"), "")
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, "success", resp.Status)

	var created customer.Profile
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	require.False(t, created.ID.IsNil())

	// On the wire the ID is the canonical UUID string, not a byte array.
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(resp.Data, &raw))
	assert.Equal(t, fmt.Sprintf("%q", created.ID.String()), string(raw["_id"]))

	// Same email again is a duplicate.
	resp, code = srv.do(t, http.MethodPost, "/api/v1/customers", customerPayload("a@x.com"), "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", resp.Status)

	// Admin deletes the account.
	admin := srv.adminToken(t)
	_, code = srv.do(t, http.MethodDelete, "/api/v1/customers/"+created.ID.String(), nil, admin)
	assert.Equal(t, http.StatusOK, code)

	// Both records are gone.
	_, code = srv.do(t, http.MethodGet, "/api/v1/customers/"+created.ID.String(), nil, admin)
	assert.Equal(t, http.StatusNotFound, code)

	// Deleting again reports not found.
	_, code = srv.do(t, http.MethodDelete, "/api/v1/customers/"+created.ID.String(), nil, admin)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSellerRegistrationIgnoresClientStatus(t *testing.T) {
	srv := newTestServer(t)

	payload := sellerPayload("bola@example.com", "bola")
	payload["status"] = "Approved"

	resp, code := srv.do(t, http.MethodPost, "/api/v1/sellers", payload, "")
	require.Equal(t, http.StatusCreated, code)

	var created seller.Profile
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.Equal(t, seller.StatusPending, created.Status)
}

func TestRegistrationValidationNamesFields(t *testing.T) {
	srv := newTestServer(t)

	payload := customerPayload("not-an-email")
	delete(payload, "first_name")

	resp, code := srv.do(t, http.MethodPost, "/api/v1/customers", payload, "")
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "error", resp.Status)

	fields := make(map[string]bool)
	for _, fe := range resp.Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["first_name"])
	assert.True(t, fields["email"])
}

func TestLoginLogoutFlow(t *testing.T) {
	srv := newTestServer(t)

	resp, code := srv.do(t, http.MethodPost, "/api/v1/customers", customerPayload("ada@example.com"), "")
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, "success", resp.Status)

	// Wrong password.
	_, code = srv.do(t, http.MethodPost, "/api/v1/users/login", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	// Correct credentials.
	resp, code = srv.do(t, http.MethodPost, "/api/v1/users/login", map[string]string{
		"email": "ada@example.com", "password": "s3cret-pass",
	}, "")
	require.Equal(t, http.StatusOK, code)

	var login identity.LoginResult
	require.NoError(t, json.Unmarshal(resp.Data, &login))
	require.NotEmpty(t, login.Token)

	// Token works.
	_, code = srv.do(t, http.MethodGet, "/api/v1/users/me", nil, login.Token)
	assert.Equal(t, http.StatusOK, code)

	// Logout revokes it.
	_, code = srv.do(t, http.MethodPost, "/api/v1/users/logout", nil, login.Token)
	require.Equal(t, http.StatusOK, code)
	_, code = srv.do(t, http.MethodGet, "/api/v1/users/me", nil, login.Token)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	srv := newTestServer(t)

	_, code := srv.do(t, http.MethodGet, "/api/v1/customers", nil, "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCustomerCannotTouchOtherProfiles(t *testing.T) {
	srv := newTestServer(t)

	_, code := srv.do(t, http.MethodPost, "/api/v1/customers", customerPayload("a@x.com"), "")
	require.Equal(t, http.StatusCreated, code)
	resp, code := srv.do(t, http.MethodPost, "/api/v1/customers", customerPayload("b@x.com"), "")
	require.Equal(t, http.StatusCreated, code)

	var victim customer.Profile
	require.NoError(t, json.Unmarshal(resp.Data, &victim))

	login, code := srv.do(t, http.MethodPost, "/api/v1/users/login", map[string]string{
		"email": "a@x.com", "password": "s3cret-pass",
	}, "")
	require.Equal(t, http.StatusOK, code)
	var session identity.LoginResult
	require.NoError(t, json.Unmarshal(login.Data, &session))

	update := map[string]any{"first_name": "Mallory"}
	_, code = srv.do(t, http.MethodPut, "/api/v1/customers/"+victim.ID.String(), update, session.Token)
	assert.Equal(t, http.StatusForbidden, code)

	_, code = srv.do(t, http.MethodDelete, "/api/v1/customers/"+victim.ID.String(), nil, session.Token)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestSellerStatusEndpoint(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.adminToken(t)

	resp, code := srv.do(t, http.MethodPost, "/api/v1/sellers", sellerPayload("bola@example.com", "bola"), "")
	require.Equal(t, http.StatusCreated, code)
	var created seller.Profile
	require.NoError(t, json.Unmarshal(resp.Data, &created))

	resp, code = srv.do(t, http.MethodPatch, "/api/v1/sellers/"+created.ID.String()+"/status",
		map[string]string{"status": "Approved"}, admin)
	require.Equal(t, http.StatusOK, code)

	var updated seller.Profile
	require.NoError(t, json.Unmarshal(resp.Data, &updated))
	assert.Equal(t, seller.StatusApproved, updated.Status)

	// A seller cannot approve themselves.
	login, code := srv.do(t, http.MethodPost, "/api/v1/users/login", map[string]string{
		"email": "bola@example.com", "password": "s3cret-pass",
	}, "")
	require.Equal(t, http.StatusOK, code)
	var session identity.LoginResult
	require.NoError(t, json.Unmarshal(login.Data, &session))

	_, code = srv.do(t, http.MethodPatch, "/api/v1/sellers/"+created.ID.String()+"/status",
		map[string]string{"status": "Rejected"}, session.Token)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestPropertyEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, code := srv.do(t, http.MethodPost, "/api/v1/sellers", sellerPayload("bola@example.com", "bola"), "")
	require.Equal(t, http.StatusCreated, code)
	var owner seller.Profile
	require.NoError(t, json.Unmarshal(resp.Data, &owner))

	login, code := srv.do(t, http.MethodPost, "/api/v1/users/login", map[string]string{
		"email": "bola@example.com", "password": "s3cret-pass",
	}, "")
	require.Equal(t, http.StatusOK, code)
	var session identity.LoginResult
	require.NoError(t, json.Unmarshal(login.Data, &session))

	listing := map[string]any{
		"title":       "Two-bed flat",
		"type":        "Residential",
		"description": "Bright two-bedroom flat",
		"address": map[string]string{
			"house": "4", "street": "Bourdillon Road", "city": "Lagos", "postal_code": "101233",
		},
		"price":  45_000_000,
		"images": []string{"https://img.example.com/1.jpg"},
	}
	resp, code = srv.do(t, http.MethodPost, "/api/v1/properties", listing, session.Token)
	require.Equal(t, http.StatusCreated, code)

	var created property.Property
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.Equal(t, owner.ID, created.SellerID)

	// Public list with a filter.
	resp, code = srv.do(t, http.MethodGet, "/api/v1/properties?city=lag&type=Residential", nil, "")
	require.Equal(t, http.StatusOK, code)
	var listings []property.Property
	require.NoError(t, json.Unmarshal(resp.Data, &listings))
	assert.Len(t, listings, 1)

	// Account deletion is admin-only; the seller cannot remove themselves.
	_, code = srv.do(t, http.MethodDelete, "/api/v1/sellers/"+owner.ID.String(), nil, session.Token)
	assert.Equal(t, http.StatusForbidden, code)

	// A seller with open listings cannot be deleted even by an admin.
	admin := srv.adminToken(t)
	_, code = srv.do(t, http.MethodDelete, "/api/v1/sellers/"+owner.ID.String(), nil, admin)
	assert.Equal(t, http.StatusBadRequest, code)

	// Remove the listing, then the account.
	_, code = srv.do(t, http.MethodDelete, "/api/v1/properties/"+created.ID.String(), nil, session.Token)
	require.Equal(t, http.StatusOK, code)
	_, code = srv.do(t, http.MethodDelete, "/api/v1/sellers/"+owner.ID.String(), nil, admin)
	assert.Equal(t, http.StatusOK, code)
}

func TestAdminUserLifecycle(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.adminToken(t)

	resp, code := srv.do(t, http.MethodPost, "/api/v1/users", map[string]string{
		"name": "Second Admin", "email": "ops2@example.com", "password": "admin-pass-456", "role": "admin",
	}, admin)
	require.Equal(t, http.StatusCreated, code)

	var created identity.Identity
	require.NoError(t, json.Unmarshal(resp.Data, &created))

	// Profile-backed accounts are deleted through deregistration, not here.
	custResp, code := srv.do(t, http.MethodPost, "/api/v1/customers", customerPayload("ada@example.com"), "")
	require.Equal(t, http.StatusCreated, code)
	var cust customer.Profile
	require.NoError(t, json.Unmarshal(custResp.Data, &cust))
	_, code = srv.do(t, http.MethodDelete, "/api/v1/users/"+cust.ID.String(), nil, admin)
	assert.Equal(t, http.StatusBadRequest, code)

	// Non-admins cannot delete identities.
	login, code := srv.do(t, http.MethodPost, "/api/v1/users/login", map[string]string{
		"email": "ada@example.com", "password": "s3cret-pass",
	}, "")
	require.Equal(t, http.StatusOK, code)
	var session identity.LoginResult
	require.NoError(t, json.Unmarshal(login.Data, &session))
	_, code = srv.do(t, http.MethodDelete, "/api/v1/users/"+created.ID.String(), nil, session.Token)
	assert.Equal(t, http.StatusForbidden, code)

	// Admin removes the admin identity.
	_, code = srv.do(t, http.MethodDelete, "/api/v1/users/"+created.ID.String(), nil, admin)
	require.Equal(t, http.StatusOK, code)
	_, code = srv.do(t, http.MethodGet, "/api/v1/users/"+created.ID.String(), nil, admin)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMalformedIDReturnsBadRequest(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.adminToken(t)

	_, code := srv.do(t, http.MethodGet, "/api/v1/customers/not-a-uuid", nil, admin)
	assert.Equal(t, http.StatusBadRequest, code)
}
