package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	gateway "github.com/nashir/pushgate/apigateway"
	"github.com/nashir/pushgate/fields"
	"github.com/nashir/pushgate/providers"
	"github.com/nashir/pushgate/store"
)

const (
	testTenantID  = "acme"
	testPublicURL = "https://push.example.com"
)

type sentMessage struct {
	Client  fields.Client
	Payload fields.MessagePayload
}

// fakeProvider records sends, optionally failing them first.
type fakeProvider struct {
	kind fields.ProviderKind

	mu    sync.Mutex
	fail  error
	sends []sentMessage
}

func (f *fakeProvider) Kind() fields.ProviderKind { return f.kind }

func (f *fakeProvider) Send(_ context.Context, client fields.Client, payload fields.MessagePayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sends = append(f.sends, sentMessage{Client: client, Payload: payload})
	return nil
}

func (f *fakeProvider) failWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

func (f *fakeProvider) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

func (f *fakeProvider) last() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sends[len(f.sends)-1]
}

type testEnv struct {
	svc    *Service
	router *gin.Engine

	fcm  *fakeProvider
	noop *fakeProvider

	clients       *store.Clients
	notifications *store.Notifications
	tenants       *store.Tenants
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newTestEnv builds a multi-tenant service over a temp sqlite database, with
// fake providers behind the resolver and one seeded tenant.
func newTestEnv(t *testing.T, opts ...func(*fields.Config)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.Open(filepath.Join(t.TempDir(), "relay.db"))
	require.NoError(t, err)

	log := quietLogger()
	env := &testEnv{
		fcm:           &fakeProvider{kind: fields.ProviderFCM},
		noop:          &fakeProvider{kind: fields.ProviderNoop},
		clients:       store.NewClients(db, log),
		notifications: store.NewNotifications(db, log),
		tenants:       store.NewTenants(db),
	}

	require.NoError(t, env.tenants.PutTenant(context.Background(), fields.Tenant{
		ID:               testTenantID,
		EnabledProviders: fields.ProviderKinds{fields.ProviderFCM, fields.ProviderNoop},
		FCMCredentials:   `{"type":"service_account"}`,
	}))

	resolver, err := providers.NewResolver(providers.DefaultCacheSize,
		func(_ context.Context, cfg fields.ProviderConfig) (providers.PushProvider, error) {
			switch cfg.Kind {
			case fields.ProviderFCM:
				return env.fcm, nil
			case fields.ProviderNoop:
				return env.noop, nil
			}
			return nil, fields.ErrProviderNotFound
		})
	require.NoError(t, err)

	env.svc = &Service{
		Clients:       env.clients,
		Notifications: env.notifications,
		Tenants:       env.tenants,
		Resolver:      resolver,
		Logger:        log,
		Config: fields.Config{
			PublicURL:   testPublicURL,
			Multitenant: true,
		},
		Metrics:    NewMetrics(prometheus.NewRegistry()),
		Analytics:  NoopCollector{},
		Auth:       &gateway.JWTAuth{Key: []byte("test-secret")},
		InstanceID: uuid.New(),
		StartedAt:  time.Now(),
	}
	for _, opt := range opts {
		opt(&env.svc.Config)
	}
	env.router = gin.New()
	env.svc.Mount(env.router)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) register(t *testing.T, clientID string, kind fields.ProviderKind) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/tenants/"+testTenantID+"/clients", RegisterBody{
		ClientID: clientID,
		PushType: string(kind),
		Token:    "token-" + clientID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func (e *testEnv) push(t *testing.T, clientID, notificationID string, payload fields.MessagePayload) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, http.MethodPost, "/tenants/"+testTenantID+"/clients/"+clientID, PushMessageBody{
		ID:      notificationID,
		Payload: payload,
	})
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) fields.Response {
	t.Helper()
	var res fields.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func errorName(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	res := decodeEnvelope(t, w)
	require.NotEmpty(t, res.Errors)
	return res.Errors[0].Name
}
