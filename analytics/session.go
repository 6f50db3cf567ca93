package analytics

import (
	"context"
	"strings"
	"time"
)

const unknown = "unknown"

type Session struct {
	SessionID    string     `json:"sessionId"`
	StartTime    time.Time  `json:"startTime"`
	LastActivity int64      `json:"lastActivity"`
	PageViews    []PageView `json:"pageViews"`
	UserInfo     UserInfo   `json:"userInfo"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	// TotalDuration is in milliseconds.
	TotalDuration *int64 `json:"totalDuration,omitempty"`
}

type PageView struct {
	Route     string    `json:"route"`
	Timestamp time.Time `json:"timestamp"`
	// Duration is in milliseconds and stays 0 until the next view starts.
	Duration  int64 `json:"duration"`
	StartTime int64 `json:"startTime"`
}

type UserInfo struct {
	IP                  string      `json:"ip"`
	UserAgent           string      `json:"userAgent"`
	Language            string      `json:"language"`
	Languages           []string    `json:"languages,omitempty"`
	Platform            string      `json:"platform"`
	CookieEnabled       bool        `json:"cookieEnabled"`
	DoNotTrack          *string     `json:"doNotTrack,omitempty"`
	HardwareConcurrency int         `json:"hardwareConcurrency,omitempty"`
	DeviceMemory        float64     `json:"deviceMemory,omitempty"`
	Screen              Screen      `json:"screen"`
	Viewport            Viewport    `json:"viewport"`
	Timezone            string      `json:"timezone"`
	Geolocation         Geolocation `json:"geolocation"`
	Connection          *Connection `json:"connection,omitempty"`
}

type Screen struct {
	Width      int `json:"width"`
	Height     int `json:"height"`
	ColorDepth int `json:"colorDepth"`
	PixelDepth int `json:"pixelDepth"`
}

type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Connection struct {
	EffectiveType string  `json:"effectiveType,omitempty"`
	Downlink      float64 `json:"downlink,omitempty"`
	RTT           int     `json:"rtt,omitempty"`
	SaveData      bool    `json:"saveData,omitempty"`
}

type Geolocation struct {
	IP          string  `json:"ip"`
	City        string  `json:"city,omitempty"`
	Region      string  `json:"region,omitempty"`
	Country     string  `json:"country,omitempty"`
	CountryCode string  `json:"countryCode,omitempty"`
	Continent   string  `json:"continent,omitempty"`
	Postal      string  `json:"postal,omitempty"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`
	Timezone    string  `json:"timezone,omitempty"`
	Org         string  `json:"org,omitempty"`
	ASN         string  `json:"asn,omitempty"`
}

// Entry is a stored session together with the name it was stored under.
type Entry struct {
	Filename string  `json:"filename"`
	Data     Session `json:"data"`
}

type Repository interface {
	Save(ctx context.Context, session Session) (string, error)
	List(ctx context.Context) ([]Entry, error)
}

// Validate checks the fields a stored session must carry.
func (s Session) Validate() error {
	if strings.TrimSpace(s.SessionID) == "" || s.StartTime.IsZero() {
		return NewInvalidSessionError("Missing required fields in analytics data")
	}
	return nil
}

// UnknownUserInfo is the placeholder used until real client details are known.
func UnknownUserInfo() UserInfo {
	return UserInfo{
		IP:          unknown,
		UserAgent:   unknown,
		Language:    unknown,
		Platform:    unknown,
		Timezone:    unknown,
		Geolocation: UnknownGeolocation(),
	}
}

func UnknownGeolocation() Geolocation {
	return Geolocation{
		IP:          unknown,
		City:        unknown,
		Region:      unknown,
		Country:     unknown,
		CountryCode: unknown,
		Continent:   unknown,
		Postal:      unknown,
		Timezone:    unknown,
		Org:         unknown,
		ASN:         unknown,
	}
}

func isUnknown(s string) bool {
	return s == "" || s == unknown
}
