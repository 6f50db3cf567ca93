package analytics

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Locator resolves an IP address to a location.
type Locator interface {
	Locate(ip string) (Geolocation, error)
}

var _ Locator = &GeoIPLocator{}

// GeoIPLocator reads a MaxMind City database.
type GeoIPLocator struct {
	db *geoip2.Reader
}

func NewGeoIPLocator(dbPath string) (*GeoIPLocator, error) {
	db, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open geoip database: %w", err)
	}
	return &GeoIPLocator{db: db}, nil
}

func (g *GeoIPLocator) Locate(ip string) (Geolocation, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Geolocation{}, fmt.Errorf("invalid IP address %q", ip)
	}

	record, err := g.db.City(parsed)
	if err != nil {
		return Geolocation{}, fmt.Errorf("geoip lookup failed: %w", err)
	}

	geo := UnknownGeolocation()
	geo.IP = ip
	if name := record.City.Names["en"]; name != "" {
		geo.City = name
	}
	if len(record.Subdivisions) > 0 {
		if name := record.Subdivisions[0].Names["en"]; name != "" {
			geo.Region = name
		} else if record.Subdivisions[0].IsoCode != "" {
			geo.Region = record.Subdivisions[0].IsoCode
		}
	}
	if name := record.Country.Names["en"]; name != "" {
		geo.Country = name
	}
	if record.Country.IsoCode != "" {
		geo.CountryCode = record.Country.IsoCode
	}
	if record.Continent.Code != "" {
		geo.Continent = record.Continent.Code
	}
	if record.Postal.Code != "" {
		geo.Postal = record.Postal.Code
	}
	if record.Location.TimeZone != "" {
		geo.Timezone = record.Location.TimeZone
	}
	geo.Latitude = record.Location.Latitude
	geo.Longitude = record.Location.Longitude

	return geo, nil
}

func (g *GeoIPLocator) Close() error {
	return g.db.Close()
}

// Enrich fills an unknown client IP and geolocation from the request side.
// Known values sent by the client are kept. A nil locator only fills the IP.
func Enrich(session *Session, clientIP string, locator Locator) error {
	if clientIP == "" {
		return nil
	}
	if isUnknown(session.UserInfo.IP) {
		session.UserInfo.IP = clientIP
	}
	if locator == nil || !isUnknown(session.UserInfo.Geolocation.Country) {
		return nil
	}

	geo, err := locator.Locate(clientIP)
	if err != nil {
		return err
	}
	session.UserInfo.Geolocation = geo
	return nil
}
