package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nashir/pushgate/fields"
)

func getTenant(t *testing.T, env *testEnv, tenantID, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/tenants/"+tenantID, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestGetTenant(t *testing.T) {
	env := newTestEnv(t)
	token, err := env.svc.Auth.GenerateJWT(testTenantID)
	require.NoError(t, err)

	w := getTenant(t, env, testTenantID, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res GetTenantResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, testPublicURL+"/"+testTenantID, res.URL)
	assert.ElementsMatch(t, fields.ProviderKinds{fields.ProviderFCM, fields.ProviderNoop}, res.EnabledProviders)
	assert.Empty(t, res.APNSTopic)
	assert.False(t, res.Suspended)
}

func TestGetTenant_APNSDetails(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.tenants.PutTenant(context.Background(), fields.Tenant{
		ID:               "fruitco",
		EnabledProviders: fields.ProviderKinds{fields.ProviderAPNS},
		APNSType:         fields.APNSTypeToken,
		APNSTopic:        "com.fruitco.app",
		APNSKeyID:        "KEYID",
		APNSTeamID:       "TEAMID",
		APNSKeyP8:        "p8",
	}))
	token, err := env.svc.Auth.GenerateJWT("fruitco")
	require.NoError(t, err)

	w := getTenant(t, env, "fruitco", token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res GetTenantResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "com.fruitco.app", res.APNSTopic)
	assert.Equal(t, fields.APNSTypeToken, res.APNSType)
}

func TestGetTenant_AuthRequired(t *testing.T) {
	env := newTestEnv(t)

	w := getTenant(t, env, testTenantID, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetTenant_CrossTenantTokenRejected(t *testing.T) {
	env := newTestEnv(t)
	token, err := env.svc.Auth.GenerateJWT("someone-else")
	require.NoError(t, err)

	w := getTenant(t, env, testTenantID, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetTenant_Unknown(t *testing.T) {
	env := newTestEnv(t)
	token, err := env.svc.Auth.GenerateJWT("ghost")
	require.NoError(t, err)

	w := getTenant(t, env, "ghost", token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "TenantNotFound", errorName(t, w))
}
