package fields

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DecentralizedIdentifierPrefix is stripped from inbound client ids before any
// store lookup. Clients may identify themselves either by the bare key or by
// the full did:key form.
const DecentralizedIdentifierPrefix = "did:key:"

// DefaultTenantID is the tenant every request belongs to when pushgate runs in
// single-tenant mode.
const DefaultTenantID = "default"

var ErrProviderNotFound = errors.New("push provider not found")

// ProviderKind identifies an upstream push vendor. The set is closed: adding a
// vendor means adding a constant here and a provider implementation, nothing
// else changes.
type ProviderKind string

const (
	ProviderFCM  ProviderKind = "fcm"
	ProviderAPNS ProviderKind = "apns"
	ProviderNoop ProviderKind = "noop"
)

func ParseProviderKind(s string) (ProviderKind, error) {
	switch ProviderKind(strings.ToLower(s)) {
	case ProviderFCM:
		return ProviderFCM, nil
	case ProviderAPNS:
		return ProviderAPNS, nil
	case ProviderNoop:
		return ProviderNoop, nil
	default:
		return "", fmt.Errorf("unknown push type %q", s)
	}
}

// NormalizeClientID strips the decentralized-identifier prefix so that
// did:key:z... and z... address the same registration.
func NormalizeClientID(id string) string {
	return strings.TrimPrefix(id, DecentralizedIdentifierPrefix)
}

// Client is a registered device identity within a tenant. Within a tenant a
// client id and a device token each identify at most one row; the registry
// upsert collapses id or token rotations onto the existing row.
type Client struct {
	TenantID    string       `json:"tenant_id" gorm:"primaryKey;uniqueIndex:idx_tenant_token"`
	ID          string       `json:"client_id" gorm:"primaryKey"`
	PushType    ProviderKind `json:"push_type"`
	DeviceToken string       `json:"token" gorm:"uniqueIndex:idx_tenant_token"`
	AlwaysRaw   bool         `json:"always_raw"`
	CreatedAt   time.Time    `json:"created_at,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at,omitempty"`
}

// NotificationStatus tracks how far a notification got through dispatch. Only
// a failed notification is eligible for re-dispatch on redelivery.
type NotificationStatus string

const (
	StatusDispatching NotificationStatus = "dispatching"
	StatusDelivered   NotificationStatus = "delivered"
	StatusFailed      NotificationStatus = "failed"
)

// Notification records one logical delivery request. Payloads is append-only:
// every redelivery of the same id adds its payload to the history.
type Notification struct {
	TenantID  string             `json:"tenant_id" gorm:"primaryKey"`
	ID        string             `json:"id" gorm:"primaryKey"`
	ClientID  string             `json:"client_id" gorm:"index"`
	Payloads  PayloadHistory     `json:"payloads"`
	Status    NotificationStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at,omitempty"`
	UpdatedAt time.Time          `json:"updated_at,omitempty"`
}

// PayloadHistory stores the ordered payload submissions as a JSON column.
type PayloadHistory []MessagePayload

func (h PayloadHistory) Value() (driver.Value, error) {
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (h *PayloadHistory) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	case nil:
		*h = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into PayloadHistory", value)
	}
}

// ProviderKinds is a JSON-column list of enabled vendors on a tenant.
type ProviderKinds []ProviderKind

func (k ProviderKinds) Value() (driver.Value, error) {
	b, err := json.Marshal(k)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (k *ProviderKinds) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, k)
	case string:
		return json.Unmarshal([]byte(v), k)
	case nil:
		*k = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ProviderKinds", value)
	}
}

func (k ProviderKinds) Contains(kind ProviderKind) bool {
	for _, have := range k {
		if have == kind {
			return true
		}
	}
	return false
}

// APNSCertType selects the auth scheme used against APNS.
type APNSCertType string

const (
	APNSTypeToken       APNSCertType = "token"
	APNSTypeCertificate APNSCertType = "certificate"
)

// Tenant holds one customer's vendor credentials and enablement. Read-only
// from the dispatch path; management writes happen elsewhere.
type Tenant struct {
	ID               string        `json:"id" gorm:"primaryKey"`
	EnabledProviders ProviderKinds `json:"enabled_providers"`
	FCMCredentials   string        `json:"-"`
	APNSType         APNSCertType  `json:"apns_type,omitempty"`
	APNSTopic        string        `json:"apns_topic,omitempty"`
	APNSKeyID        string        `json:"-"`
	APNSTeamID       string        `json:"-"`
	APNSKeyP8        string        `json:"-"`
	Suspended        bool          `json:"suspended"`
	SuspendedReason  string        `json:"suspended_reason,omitempty"`
	CreatedAt        time.Time     `json:"created_at,omitempty"`
	UpdatedAt        time.Time     `json:"updated_at,omitempty"`
}

func (t Tenant) Providers() ProviderKinds {
	return t.EnabledProviders
}

// ProviderConfig carries the credentials needed to construct one live vendor
// client for this tenant.
type ProviderConfig struct {
	Kind           ProviderKind
	FCMCredentials string
	APNSType       APNSCertType
	APNSTopic      string
	APNSKeyID      string
	APNSTeamID     string
	APNSKeyP8      string
}

// ProviderConfig returns the credentials for kind, or ErrProviderNotFound when
// the vendor is not enabled for this tenant.
func (t Tenant) ProviderConfig(kind ProviderKind) (ProviderConfig, error) {
	if !t.EnabledProviders.Contains(kind) {
		return ProviderConfig{}, ErrProviderNotFound
	}
	cfg := ProviderConfig{Kind: kind}
	switch kind {
	case ProviderFCM:
		if t.FCMCredentials == "" {
			return ProviderConfig{}, ErrProviderNotFound
		}
		cfg.FCMCredentials = t.FCMCredentials
	case ProviderAPNS:
		if t.APNSKeyP8 == "" || t.APNSKeyID == "" || t.APNSTeamID == "" {
			return ProviderConfig{}, ErrProviderNotFound
		}
		cfg.APNSType = t.APNSType
		cfg.APNSTopic = t.APNSTopic
		cfg.APNSKeyID = t.APNSKeyID
		cfg.APNSTeamID = t.APNSTeamID
		cfg.APNSKeyP8 = t.APNSKeyP8
	case ProviderNoop:
	}
	return cfg, nil
}
