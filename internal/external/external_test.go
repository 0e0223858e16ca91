package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/marketpulse/internal/httputil"
	"github.com/kjannette/marketpulse/internal/models"
)

func serve(t *testing.T, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testHTTP() *httputil.Client {
	return httputil.NewClient(httputil.WithRateLimit(0), httputil.WithTimeout(5*time.Second))
}

func TestFearGreed_Latest(t *testing.T) {
	srv := serve(t, `{"data":[{"value":"72","value_classification":"Greed","timestamp":"1710028800"}]}`,
		func(r *http.Request) { assert.Equal(t, "1", r.URL.Query().Get("limit")) })

	c := NewFearGreedClient(testHTTP(), WithBaseURL(srv.URL))
	got, err := c.FetchSentimentIndex(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 72.0, got.Value)
	assert.Equal(t, "Greed", got.Classification)
	assert.True(t, got.Date.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)), "date %s", got.Date)
}

func TestFearGreed_Empty(t *testing.T) {
	srv := serve(t, `{"data":[]}`, nil)

	_, err := NewFearGreedClient(testHTTP(), WithBaseURL(srv.URL)).FetchSentimentIndex(context.Background())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFearGreed_BadValue(t *testing.T) {
	srv := serve(t, `{"data":[{"value":"n/a","value_classification":"Greed","timestamp":"1710028800"}]}`, nil)

	_, err := NewFearGreedClient(testHTTP(), WithBaseURL(srv.URL)).FetchSentimentIndex(context.Background())
	assert.Error(t, err)
}

func TestFRED_SkipsMissingObservations(t *testing.T) {
	srv := serve(t, `{"observations":[
		{"date":"2024-03-11","value":"."},
		{"date":"2024-03-08","value":"5.33"}
	]}`, func(r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "DFF", q.Get("series_id"))
		assert.Equal(t, "secret", q.Get("api_key"))
		assert.Equal(t, "desc", q.Get("sort_order"))
	})

	c := NewFREDClient(testHTTP(), "secret", WithBaseURL(srv.URL))
	got, err := c.FetchNamedSeries(context.Background(), "DFF")
	require.NoError(t, err)

	assert.Equal(t, "DFF", got.SeriesID)
	assert.InDelta(t, 5.33, got.Value, 1e-12)
	assert.True(t, got.Date.Equal(time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)))
}

func TestFRED_AllMissing(t *testing.T) {
	srv := serve(t, `{"observations":[{"date":"2024-03-11","value":"."}]}`, nil)

	_, err := NewFREDClient(testHTTP(), "k", WithBaseURL(srv.URL)).FetchNamedSeries(context.Background(), "DFF")
	assert.True(t, errors.Is(err, ErrNoData), "got %v", err)
}

func TestFRED_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error_message":"bad series"}`))
	}))
	defer srv.Close()

	_, err := NewFREDClient(testHTTP(), "k", WithBaseURL(srv.URL)).FetchNamedSeries(context.Background(), "NOPE")
	var se *httputil.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
}

func TestYahoo_ClosestLookbacks(t *testing.T) {
	now := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	day := int64(24 * 60 * 60)
	base := now.Unix()
	// Closes at 91, 30, 7 and 0 days ago; one null close at 29 days ago.
	body := `{"chart":{"result":[{"timestamp":[` +
		itoa(base-91*day) + `,` + itoa(base-30*day) + `,` + itoa(base-29*day) + `,` + itoa(base-7*day) + `,` + itoa(base) +
		`],"indicators":{"quote":[{"close":[100,200,null,300,400],"volume":[1,2,3,4,5000]}]}}],"error":null}}`

	srv := serve(t, body, func(r *http.Request) {
		assert.Equal(t, "/BTC-USD", r.URL.Path)
		assert.Equal(t, "3mo", r.URL.Query().Get("range"))
	})

	c := NewYahooClient(testHTTP(), WithBaseURL(srv.URL), WithClock(func() time.Time { return now }))
	got, err := c.FetchAssetRecentPrice(context.Background(), models.BtcUsd)
	require.NoError(t, err)

	assert.Equal(t, models.BtcUsd, got.Symbol)
	assert.Equal(t, 400.0, got.LatestPrice)
	assert.Equal(t, 5000.0, got.Volume)
	assert.Equal(t, 300.0, got.Price7dAgo)
	assert.Equal(t, 200.0, got.Price30dAgo)
	assert.Equal(t, 100.0, got.Price90dAgo)
}

func TestYahoo_TrailingNullClose(t *testing.T) {
	body := `{"chart":{"result":[{"timestamp":[1,2],"indicators":{"quote":[{"close":[10,null],"volume":[7,null]}]}}]}}`
	srv := serve(t, body, nil)

	got, err := NewYahooClient(testHTTP(), WithBaseURL(srv.URL)).FetchAssetRecentPrice(context.Background(), models.Gold)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.LatestPrice)
	assert.Equal(t, 7.0, got.Volume)
}

func TestYahoo_LengthMismatch(t *testing.T) {
	body := `{"chart":{"result":[{"timestamp":[1,2],"indicators":{"quote":[{"close":[10],"volume":[1,2]}]}}]}}`
	srv := serve(t, body, nil)

	_, err := NewYahooClient(testHTTP(), WithBaseURL(srv.URL)).FetchAssetRecentPrice(context.Background(), models.Oil)
	assert.Error(t, err)
}

func TestYahoo_ChartError(t *testing.T) {
	body := `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`
	srv := serve(t, body, nil)

	_, err := NewYahooClient(testHTTP(), WithBaseURL(srv.URL)).FetchAssetRecentPrice(context.Background(), models.Sp500)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not Found")
}

func TestYahoo_UnknownSymbol(t *testing.T) {
	_, err := NewYahooClient(testHTTP()).FetchAssetRecentPrice(context.Background(), models.DFF)
	assert.Error(t, err)
}

func TestCoinMarketCap_SecondNewestPoint(t *testing.T) {
	body := `{"data":{"points":[
		{"marketCap":1,"stableValue":1,"btcValue":1,"ethValue":1,"volume":1,"timestamp":"1000"},
		{"marketCap":3,"stableValue":3,"btcValue":3,"ethValue":3,"volume":3,"timestamp":"3000"},
		{"marketCap":2000,"stableValue":200,"btcValue":1000,"ethValue":400,"volume":90,"timestamp":"2000"},
		{"marketCap":9,"stableValue":9,"btcValue":9,"ethValue":9,"volume":9,"timestamp":"bad"}
	]}}`
	srv := serve(t, body, func(r *http.Request) {
		assert.Equal(t, usdConvertID, r.URL.Query().Get("convertId"))
	})

	got, err := NewCoinMarketCapClient(testHTTP(), WithBaseURL(srv.URL)).FetchGlobalAggregate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.GlobalAggregate{
		TotalCapUSD: 2000, StableCapUSD: 200, BTCCapUSD: 1000, ETHCapUSD: 400, Volume24hUSD: 90,
	}, got)
}

func TestCoinMarketCap_TooFewPoints(t *testing.T) {
	srv := serve(t, `{"data":{"points":[{"marketCap":1,"timestamp":"1000"}]}}`, nil)

	_, err := NewCoinMarketCapClient(testHTTP(), WithBaseURL(srv.URL)).FetchGlobalAggregate(context.Background())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestParseNumber(t *testing.T) {
	v, err := parseNumber(" 4.125 ")
	require.NoError(t, err)
	assert.Equal(t, 4.125, v)

	_, err = parseNumber(".")
	assert.Error(t, err)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
