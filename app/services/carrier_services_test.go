package services

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/sophron-goods/storefront-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCarrierService(t *testing.T, api http.HandlerFunc) (CarrierService, func()) {
	t.Helper()
	srv := newCarrierServer(t, api)
	svc := NewCarrierService(NewCarrierClient(testCarrierConfig(srv.URL)))
	return svc, srv.Close
}

func TestValidateAddress_Valid(t *testing.T) {
	svc, closeFn := newCarrierService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/addresses/v3/address", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "123 Main St", q.Get("streetAddress"))
		assert.Equal(t, "Portland", q.Get("city"))
		assert.Equal(t, "OR", q.Get("state"))
		assert.Equal(t, "97201", q.Get("ZIPCode"))
		json.NewEncoder(w).Encode(map[string]any{
			"address": map[string]string{
				"streetAddress": "123 MAIN ST",
				"city":          "PORTLAND",
				"state":         "OR",
				"ZIPCode":       "97201",
			},
			"matches": []map[string]string{
				{"streetAddress": "123 MAIN ST"},
			},
		})
	})
	defer closeFn()

	res, err := svc.ValidateAddress(context.Background(), Address{
		StreetAddress: "123 Main St",
		City:          "Portland",
		State:         "OR",
		ZipCode:       "97201",
	})
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.Equal(t, "123 MAIN ST", res.Address.StreetAddress)
	assert.Equal(t, "97201", res.Address.ZipCode)
}

func TestValidateAddress_CarrierFailureIsInvalidNotError(t *testing.T) {
	svc, closeFn := newCarrierService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad address"}`))
	})
	defer closeFn()

	addr := Address{StreetAddress: "nowhere", City: "X", State: "XX", ZipCode: "00000"}
	res, err := svc.ValidateAddress(context.Background(), addr)
	require.NoError(t, err, "validation failures degrade to invalid, never error")
	assert.False(t, res.IsValid)
	assert.Equal(t, addr, res.Address, "original address echoed back on failure")
}

func TestValidateAddress_MissingAddressInResponse(t *testing.T) {
	svc, closeFn := newCarrierService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	defer closeFn()

	res, err := svc.ValidateAddress(context.Background(), Address{StreetAddress: "a", City: "b", State: "CC", ZipCode: "12345"})
	require.NoError(t, err)
	assert.False(t, res.IsValid)
}

func TestValidateAddress_NoMatchesIsInvalid(t *testing.T) {
	svc, closeFn := newCarrierService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"address": map[string]string{
				"streetAddress": "123 MAIN ST",
				"city":          "PORTLAND",
				"state":         "OR",
				"ZIPCode":       "97201",
			},
			"matches": []map[string]string{},
		})
	})
	defer closeFn()

	res, err := svc.ValidateAddress(context.Background(), Address{
		StreetAddress: "123 Main St",
		City:          "Portland",
		State:         "OR",
		ZipCode:       "97201",
	})
	require.NoError(t, err)
	assert.False(t, res.IsValid, "a standardized echo with zero matches is not deliverable")
	assert.Equal(t, "123 MAIN ST", res.Address.StreetAddress, "standardized form still echoed back")
}

func TestValidateAddress_Suggestions(t *testing.T) {
	svc, closeFn := newCarrierService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"address": map[string]string{
				"streetAddress": "123 MAIN ST", "city": "PORTLAND", "state": "OR", "ZIPCode": "97201",
			},
			"corrections": []map[string]string{
				{"streetAddress": "123 MAIN ST STE 4", "city": "PORTLAND", "state": "OR", "ZIPCode": "97201"},
			},
		})
	})
	defer closeFn()

	res, err := svc.ValidateAddress(context.Background(), Address{StreetAddress: "123 Main", City: "Portland", State: "OR", ZipCode: "97201"})
	require.NoError(t, err)
	require.Len(t, res.Suggestions, 1)
	assert.Equal(t, "123 MAIN ST STE 4", res.Suggestions[0].StreetAddress)
}

func TestGetShippingRates_RequestDefaults(t *testing.T) {
	svc, closeFn := newCarrierService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/prices/v3/base-rates/search", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "GROUND_ADVANTAGE", body["mailClass"])
		assert.Equal(t, "MACHINABLE", body["processingCategory"])
		assert.Equal(t, "SP", body["rateIndicator"])
		assert.Equal(t, "COMMERCIAL", body["priceType"])
		assert.Equal(t, "97201", body["originZIPCode"])
		assert.Equal(t, "10001", body["destinationZIPCode"])
		assert.NotEmpty(t, body["mailingDate"])

		json.NewEncoder(w).Encode(map[string]any{
			"rates": []map[string]any{
				{"mailClass": "GROUND_ADVANTAGE", "description": "Ground Advantage", "price": 8.45, "deliveryDays": "3"},
			},
		})
	})
	defer closeFn()

	rates, err := svc.GetShippingRates(context.Background(), RateQuery{
		OriginZipCode:      "97201",
		DestinationZipCode: "10001",
		Weight:             2.5,
		Length:             12, Width: 10, Height: 6,
	})
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, "GROUND_ADVANTAGE", rates[0].Service)
	assert.Equal(t, "Ground Advantage", rates[0].ServiceName)
	assert.Equal(t, "8.45", rates[0].Rate)
	assert.Equal(t, "USD", rates[0].Currency)
	assert.Equal(t, "3", rates[0].DeliveryDays)
}

func TestGetShippingRates_NumericDeliveryDays(t *testing.T) {
	svc, closeFn := newCarrierService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"rates": []map[string]any{
				{"mailClass": "GROUND_ADVANTAGE", "description": "Ground Advantage", "price": 8.45, "deliveryDays": 3},
				{"mailClass": "PRIORITY", "description": "Priority Mail", "price": 12.10},
			},
		})
	})
	defer closeFn()

	rates, err := svc.GetShippingRates(context.Background(), RateQuery{
		OriginZipCode: "97201", DestinationZipCode: "10001", Weight: 1,
	})
	require.NoError(t, err, "a bare-number deliveryDays must not fail the lookup")
	require.Len(t, rates, 2)
	assert.Equal(t, "3", rates[0].DeliveryDays)
	assert.Empty(t, rates[1].DeliveryDays)
}

func TestGetShippingRates_FieldFallbacks(t *testing.T) {
	svc, closeFn := newCarrierService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"rates": []map[string]any{
				// no mailClass/description/price, only service and totalPrice
				{"service": "PRIORITY_MAIL", "totalPrice": 12.1},
				// completely bare entry falls back to the queried class
				{},
			},
		})
	})
	defer closeFn()

	rates, err := svc.GetShippingRates(context.Background(), RateQuery{
		OriginZipCode: "97201", DestinationZipCode: "10001", Weight: 1,
		MailClass: models.ServicePriority,
	})
	require.NoError(t, err)
	require.Len(t, rates, 2)

	assert.Equal(t, "PRIORITY_MAIL", rates[0].Service)
	assert.Equal(t, "PRIORITY_MAIL", rates[0].ServiceName)
	assert.Equal(t, "12.10", rates[0].Rate)

	assert.Equal(t, "PRIORITY_MAIL", rates[1].Service)
	assert.Equal(t, "0.00", rates[1].Rate)
}

func TestGetShippingRates_FailureIsPricingError(t *testing.T) {
	svc, closeFn := newCarrierService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer closeFn()

	_, err := svc.GetShippingRates(context.Background(), RateQuery{OriginZipCode: "97201", DestinationZipCode: "10001", Weight: 1})
	var pricingErr *PricingError
	require.ErrorAs(t, err, &pricingErr)

	var apiErr *CarrierAPIError
	assert.ErrorAs(t, err, &apiErr, "underlying API error stays inspectable")
}

func TestGetShippingRates_EmptyRatesIsPricingError(t *testing.T) {
	svc, closeFn := newCarrierService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":[]}`))
	})
	defer closeFn()

	_, err := svc.GetShippingRates(context.Background(), RateQuery{OriginZipCode: "97201", DestinationZipCode: "10001", Weight: 1})
	var pricingErr *PricingError
	require.ErrorAs(t, err, &pricingErr)
}

func TestCreateLabel_RequiresAccountIDs(t *testing.T) {
	svc, closeFn := newCarrierService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no API call expected without account identifiers")
	})
	defer closeFn()

	_, err := svc.CreateLabel(context.Background(), LabelRequest{Weight: 1})
	require.Error(t, err)
}

func TestCreateLabel_Success(t *testing.T) {
	srv := newCarrierServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/labels/v3/label", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		imageInfo := body["imageInfo"].(map[string]any)
		assert.Equal(t, "PDF", imageInfo["imageType"])
		assert.Equal(t, "4X6LABEL", imageInfo["labelType"])
		assert.Equal(t, "CRID123", body["customerRegistrationId"])
		assert.Equal(t, "MID456", body["mailerId"])

		json.NewEncoder(w).Encode(map[string]any{
			"trackingNumber": "9400100000000000000000",
			"labelImage":     "JVBERi0x",
			"postage":        map[string]any{"totalPrice": 8.45},
		})
	})
	defer srv.Close()

	cfg := testCarrierConfig(srv.URL)
	cfg.CustomerRegistrationID = "CRID123"
	cfg.MailerID = "MID456"
	svc := NewCarrierService(NewCarrierClient(cfg))

	res, err := svc.CreateLabel(context.Background(), LabelRequest{
		From:   Address{StreetAddress: "1 Warehouse Way", City: "Portland", State: "OR", ZipCode: "97201"},
		To:     Address{StreetAddress: "2 Buyer Blvd", City: "New York", State: "NY", ZipCode: "10001"},
		Weight: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "9400100000000000000000", res.TrackingNumber)
	assert.Equal(t, "JVBERi0x", res.LabelImage)
	assert.Equal(t, "8.45", res.Postage)
}

func TestTrackPackage(t *testing.T) {
	svc, closeFn := newCarrierService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tracking/v3/tracking/9400123", r.URL.Path)
		assert.Equal(t, "DETAIL", r.URL.Query().Get("expand"))
		json.NewEncoder(w).Encode(map[string]any{
			"trackingNumber": "9400123",
			"statusSummary":  "In Transit",
			"trackingEvents": []map[string]string{
				{"eventType": "Departed", "eventCity": "PORTLAND", "eventZIP": "97201"},
			},
		})
	})
	defer closeFn()

	res, err := svc.TrackPackage(context.Background(), "9400123")
	require.NoError(t, err)
	assert.Equal(t, "In Transit", res.Status)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "Departed", res.Events[0].EventType)
}
