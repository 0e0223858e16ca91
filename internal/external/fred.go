package external

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/kjannette/marketpulse/internal/httputil"
	"github.com/kjannette/marketpulse/internal/models"
)

const fredURL = "https://api.stlouisfed.org/fred/series/observations"

// fredLookback is how many recent observations are scanned for the newest
// numeric one. FRED reports missing values as ".".
const fredLookback = 10

// FREDClient reads the newest observation of a FRED series.
type FREDClient struct {
	http   *httputil.Client
	apiKey string
	cfg    settings
}

func NewFREDClient(hc *httputil.Client, apiKey string, opts ...Option) *FREDClient {
	return &FREDClient{http: hc, apiKey: apiKey, cfg: newSettings(fredURL, opts)}
}

func (c *FREDClient) FetchNamedSeries(ctx context.Context, seriesID string) (models.SeriesObservation, error) {
	params := url.Values{
		"series_id":  {seriesID},
		"api_key":    {c.apiKey},
		"file_type":  {"json"},
		"sort_order": {"desc"},
		"limit":      {strconv.Itoa(fredLookback)},
	}

	var data struct {
		Observations []struct {
			Date  string `json:"date"`
			Value string `json:"value"`
		} `json:"observations"`
	}
	if err := c.http.GetJSON(ctx, c.cfg.baseURL, params, &data); err != nil {
		return models.SeriesObservation{}, fmt.Errorf("fred %s: %w", seriesID, err)
	}

	for _, obs := range data.Observations {
		if obs.Value == "." {
			continue
		}
		value, err := parseNumber(obs.Value)
		if err != nil {
			return models.SeriesObservation{}, fmt.Errorf("fred %s value: %w", seriesID, err)
		}
		date, err := models.ParseDate(obs.Date)
		if err != nil {
			return models.SeriesObservation{}, fmt.Errorf("fred %s date %q: %w", seriesID, obs.Date, err)
		}
		return models.SeriesObservation{SeriesID: seriesID, Value: value, Date: date}, nil
	}
	return models.SeriesObservation{}, fmt.Errorf("fred %s: %w", seriesID, ErrNoData)
}
