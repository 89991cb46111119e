// Package weather fetches hourly temperature and humidity forecasts from
// Open-Meteo. It is independent of the numeric packages and owns its
// timeout.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"
	DefaultTimeout = 10 * time.Second

	maxBody   = 1 << 20
	timeStamp = "2006-01-02T15:04"
)

var ErrUnknownCity = errors.New("weather: unknown city")

type City struct {
	Name string
	Lat  float64
	Lon  float64
}

var cities = map[string]City{
	"lima":     {"Lima", -12.0464, -77.0428},
	"cusco":    {"Cusco", -13.5320, -71.9675},
	"arequipa": {"Arequipa", -16.4090, -71.5375},
	"iquitos":  {"Iquitos", -3.7437, -73.2516},
	"piura":    {"Piura", -5.1945, -80.6328},
	"puno":     {"Puno", -15.8402, -70.0219},
	"trujillo": {"Trujillo", -8.1160, -79.0300},
	"huancayo": {"Huancayo", -12.0651, -75.2049},
}

// LookupCity finds a city case-insensitively.
func LookupCity(name string) (City, error) {
	c, ok := cities[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return City{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownCity, name, strings.Join(CityNames(), ", "))
	}
	return c, nil
}

func CityNames() []string {
	names := make([]string, 0, len(cities))
	for k := range cities {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Forecast is one day of hourly readings, times in the location's zone.
type Forecast struct {
	Latitude    float64
	Longitude   float64
	Timezone    string
	Times       []time.Time
	Temperature []float64
	Humidity    []float64
}

// At returns the reading at the given hour of day, or false if none exists.
func (f *Forecast) At(hour int) (temp, humidity float64, ok bool) {
	for i, t := range f.Times {
		if t.Hour() == hour {
			return f.Temperature[i], f.Humidity[i], true
		}
	}
	return 0, 0, false
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{BaseURL: baseURL, HTTPClient: &http.Client{Timeout: timeout}}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: DefaultTimeout}
}

type hourlyResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Hourly    struct {
		Time        []string   `json:"time"`
		Temperature []*float64 `json:"temperature_2m"`
		Humidity    []*float64 `json:"relative_humidity_2m"`
	} `json:"hourly"`
}

// Hourly fetches a one-day hourly forecast for (lat, lon).
func (c *Client) Hourly(ctx context.Context, lat, lon float64) (*Forecast, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("hourly", "temperature_2m,relative_humidity_2m")
	q.Set("timezone", "auto")
	q.Set("forecast_days", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("weather: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("weather: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("weather: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed hourlyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("weather: parse response: %w", err)
	}
	return parsed.forecast()
}

func (r *hourlyResponse) forecast() (*Forecast, error) {
	h := r.Hourly
	if len(h.Temperature) != len(h.Time) || len(h.Humidity) != len(h.Time) {
		return nil, fmt.Errorf("weather: hourly arrays differ in length (%d times, %d temperatures, %d humidities)",
			len(h.Time), len(h.Temperature), len(h.Humidity))
	}

	loc := time.UTC
	if r.Timezone != "" {
		if l, err := time.LoadLocation(r.Timezone); err == nil {
			loc = l
		}
	}

	f := &Forecast{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Timezone:  r.Timezone,
	}
	for i, ts := range h.Time {
		// missing readings come back as null
		if h.Temperature[i] == nil || h.Humidity[i] == nil {
			continue
		}
		t, err := time.ParseInLocation(timeStamp, ts, loc)
		if err != nil {
			return nil, fmt.Errorf("weather: bad timestamp %q: %w", ts, err)
		}
		f.Times = append(f.Times, t)
		f.Temperature = append(f.Temperature, *h.Temperature[i])
		f.Humidity = append(f.Humidity, *h.Humidity[i])
	}
	return f, nil
}

// City fetches the forecast for a named city.
func (c *Client) City(ctx context.Context, name string) (City, *Forecast, error) {
	city, err := LookupCity(name)
	if err != nil {
		return City{}, nil, err
	}
	f, err := c.Hourly(ctx, city.Lat, city.Lon)
	return city, f, err
}
