// Package weather fetches daily observations from the Visual Crossing timeline API.
package weather

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/hazardboard/internal/core/domain"
	"github.com/samirrijal/hazardboard/internal/pkg/httpclient"
	"github.com/samirrijal/hazardboard/internal/pkg/metrics"
	"github.com/samirrijal/hazardboard/internal/pkg/telemetry"
)

const (
	providerName   = "visualcrossing"
	DefaultBaseURL = "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services"
	dateLayout     = "2006-01-02"
)

// ErrMissingAPIKey is returned when no Visual Crossing key is configured.
var ErrMissingAPIKey = fmt.Errorf("weather: %w", domain.ErrMissingAPIKey)

// Client implements ports.WeatherProvider.
type Client struct {
	apiKey  string
	baseURL string
	http    *httpclient.Client
}

// NewClient creates a Visual Crossing client. An empty baseURL selects the public API.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpclient.New(timeout),
	}
}

type timelineResponse struct {
	ResolvedAddress string `json:"resolvedAddress"`
	Days            []struct {
		Datetime       string  `json:"datetime"`
		TempMax        float64 `json:"tempmax"`
		TempMin        float64 `json:"tempmin"`
		Temp           float64 `json:"temp"`
		Humidity       float64 `json:"humidity"`
		WindSpeed      float64 `json:"windspeed"`
		Precip         float64 `json:"precip"`
		SolarRadiation float64 `json:"solarradiation"`
	} `json:"days"`
}

// DailyTimeline returns one WeatherDay per day in [start, end] for location,
// in metric units.
func (c *Client) DailyTimeline(ctx context.Context, location string, start, end time.Time) (days []domain.WeatherDay, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanWeatherTimeline)
	defer span.End()
	span.SetAttributes(attribute.String("weather.location", location))

	began := time.Now()
	defer func() {
		metrics.ObserveProvider(providerName, "timeline", began, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if c.apiKey == "" {
		return nil, &domain.ProviderError{Provider: providerName, Op: "timeline", Err: ErrMissingAPIKey}
	}

	q := url.Values{}
	q.Set("unitGroup", "metric")
	q.Set("include", "days")
	q.Set("key", c.apiKey)
	q.Set("contentType", "json")
	reqURL := fmt.Sprintf("%s/timeline/%s/%s/%s?%s",
		c.baseURL, url.PathEscape(location), start.Format(dateLayout), end.Format(dateLayout), q.Encode())

	var body timelineResponse
	if err := c.http.GetJSON(ctx, reqURL, &body); err != nil {
		return nil, providerError("timeline", err)
	}

	days = make([]domain.WeatherDay, 0, len(body.Days))
	for _, d := range body.Days {
		date, err := time.Parse(dateLayout, d.Datetime)
		if err != nil {
			return nil, providerError("timeline", fmt.Errorf("day %q: %w", d.Datetime, err))
		}
		days = append(days, domain.WeatherDay{
			Location:       location,
			Date:           date,
			TempMax:        d.TempMax,
			TempMin:        d.TempMin,
			Temp:           d.Temp,
			Humidity:       d.Humidity,
			WindSpeed:      d.WindSpeed,
			Precip:         d.Precip,
			SolarRadiation: d.SolarRadiation,
		})
	}
	span.SetAttributes(attribute.Int("weather.days", len(days)))
	return days, nil
}

func providerError(op string, err error) error {
	pe := &domain.ProviderError{Provider: providerName, Op: op, Err: err}
	var se *httpclient.StatusError
	if errors.As(err, &se) {
		pe.StatusCode = se.StatusCode
	}
	return pe
}
