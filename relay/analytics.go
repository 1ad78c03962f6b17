package relay

import (
	"net"

	"github.com/oschwald/geoip2-golang"
	"github.com/sirupsen/logrus"
)

// MessageInfo is the per-delivery analytics record.
type MessageInfo struct {
	Country      string
	Continent    string
	TenantID     string
	ClientID     string
	Topic        string
	PushProvider string
	Encrypted    bool
}

// Collector receives delivery analytics, fire-and-forget. The orchestrator
// calls it unconditionally; deployments without analytics get the no-op.
type Collector interface {
	Collect(clientIP string, info MessageInfo)
}

type NoopCollector struct{}

func (NoopCollector) Collect(string, MessageInfo) {}

// GeoCollector enriches each record with country/continent from a MaxMind
// database and emits it as a structured log line.
type GeoCollector struct {
	reader *geoip2.Reader
	log    *logrus.Logger
}

func NewGeoCollector(databasePath string, log *logrus.Logger) (*GeoCollector, error) {
	reader, err := geoip2.Open(databasePath)
	if err != nil {
		return nil, err
	}
	return &GeoCollector{reader: reader, log: log}, nil
}

func (g *GeoCollector) Collect(clientIP string, info MessageInfo) {
	if ip := net.ParseIP(clientIP); ip != nil {
		if record, err := g.reader.Country(ip); err == nil {
			info.Country = record.Country.IsoCode
			info.Continent = record.Continent.Code
		}
	}
	g.log.WithFields(logrus.Fields{
		"tenant_id":     info.TenantID,
		"client_id":     info.ClientID,
		"topic":         info.Topic,
		"push_provider": info.PushProvider,
		"encrypted":     info.Encrypted,
		"country":       info.Country,
		"continent":     info.Continent,
	}).Info("message analytics")
}

func (g *GeoCollector) Close() error {
	return g.reader.Close()
}
