package businessflow

import (
	"context"
	"testing"

	"github.com/sophron-goods/storefront-api/app/dto"
	"github.com/sophron-goods/storefront-api/app/services"
	"github.com/sophron-goods/storefront-api/models"
	apptesting "github.com/sophron-goods/storefront-api/testing"
	"github.com/sophron-goods/storefront-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCarrier is a canned CarrierService for flow tests.
type fakeCarrier struct {
	rates       []services.ShippingRate
	ratesErr    error
	lastQuery   services.RateQuery
	addrResult  *services.AddressValidationResult
	addrErr     error
	lastAddress services.Address
}

func (f *fakeCarrier) GetShippingRates(ctx context.Context, query services.RateQuery) ([]services.ShippingRate, error) {
	f.lastQuery = query
	if f.ratesErr != nil {
		return nil, f.ratesErr
	}
	return f.rates, nil
}

func (f *fakeCarrier) ValidateAddress(ctx context.Context, addr services.Address) (*services.AddressValidationResult, error) {
	f.lastAddress = addr
	if f.addrErr != nil {
		return nil, f.addrErr
	}
	return f.addrResult, nil
}

func (f *fakeCarrier) CreateLabel(ctx context.Context, req services.LabelRequest) (*services.LabelResult, error) {
	return nil, nil
}

func (f *fakeCarrier) TrackPackage(ctx context.Context, trackingNumber string) (*services.TrackingResult, error) {
	return nil, nil
}

func (f *fakeCarrier) CanCreateLabels() bool { return false }

func newTestFlow(cfg *models.ShippingConfiguration, products []*models.Product, carrier *fakeCarrier) ShippingFlow {
	configRepo := &apptesting.FakeShippingConfigurationRepository{}
	if cfg != nil {
		configRepo.Configs = []*models.ShippingConfiguration{cfg}
	}
	productRepo := &apptesting.FakeProductRepository{Products: products}
	return NewShippingFlow(configRepo, productRepo, carrier, nil)
}

func TestCalculateRates_ValidationErrors(t *testing.T) {
	flow := newTestFlow(apptesting.NewTestShippingConfiguration(), nil, &fakeCarrier{})

	_, err := flow.CalculateRates(context.Background(), nil, nil)
	require.Error(t, err)

	_, err = flow.CalculateRates(context.Background(), &dto.CalculateRatesRequest{
		Items: []dto.CartItem{{ProductID: "sku-1", Quantity: 1}},
	}, nil)
	assert.True(t, IsDestinationZipRequired(err))

	_, err = flow.CalculateRates(context.Background(), &dto.CalculateRatesRequest{
		DestinationZipCode: "10001",
	}, nil)
	assert.True(t, IsNoLineItems(err))

	_, err = flow.CalculateRates(context.Background(), &dto.CalculateRatesRequest{
		DestinationZipCode: "10001",
		Items:              []dto.CartItem{{ProductID: "sku-1", Quantity: 0}},
	}, nil)
	assert.True(t, IsInvalidQuantity(err))
}

func TestCalculateRates_NoActiveConfiguration(t *testing.T) {
	flow := newTestFlow(nil, nil, &fakeCarrier{})

	_, err := flow.CalculateRates(context.Background(), &dto.CalculateRatesRequest{
		DestinationZipCode: "10001",
		Items:              []dto.CartItem{{ProductID: "sku-1", Quantity: 1}},
	}, nil)
	require.Error(t, err)
	assert.True(t, IsNoActiveShippingConfiguration(err))

	var bizErr *BusinessError
	require.ErrorAs(t, err, &bizErr)
	assert.Equal(t, "NO_ACTIVE_SHIPPING_CONFIGURATION", bizErr.Code)
}

func TestCalculateRates_WeightAggregation(t *testing.T) {
	cfg := apptesting.NewTestShippingConfiguration(models.EnabledService{
		Service: models.ServiceGroundAdvantage, Enabled: true,
	})
	carrier := &fakeCarrier{rates: []services.ShippingRate{
		{Service: "GROUND_ADVANTAGE", ServiceName: "Ground Advantage", Rate: "8.45", Currency: "USD"},
	}}
	flow := newTestFlow(cfg, []*models.Product{
		apptesting.NewTestProduct("sku-heavy", 2.5),
		apptesting.NewTestProduct("sku-weightless", -1),
	}, carrier)

	resp, err := flow.CalculateRates(context.Background(), &dto.CalculateRatesRequest{
		DestinationZipCode: "10001",
		Items: []dto.CartItem{
			{ProductID: "sku-heavy", Quantity: 2},      // 2 * 2.5
			{ProductID: "sku-weightless", Quantity: 1}, // config default 1.0
			{ProductID: "sku-unknown", Quantity: 3},    // config default 1.0 each
		},
	}, nil)
	require.NoError(t, err)

	assert.InDelta(t, 9.0, resp.TotalWeight, 1e-9)
	assert.InDelta(t, 9.0, carrier.lastQuery.Weight, 1e-9)
	assert.Equal(t, "97201", carrier.lastQuery.OriginZipCode)
	assert.Equal(t, "10001", carrier.lastQuery.DestinationZipCode)
	assert.Equal(t, cfg.DefaultLength, carrier.lastQuery.Length)
	assert.Equal(t, "97201", resp.OriginZip)
	assert.Equal(t, "10001", resp.DestinationZip)
}

func TestCalculateRates_AllowListAndMarkup(t *testing.T) {
	cfg := apptesting.NewTestShippingConfiguration(
		models.EnabledService{Service: models.ServiceGroundAdvantage, Enabled: true, MarkupPercentage: utils.ToPtr(10.0)},
		models.EnabledService{Service: models.ServicePriority, Enabled: true},
		models.EnabledService{Service: models.ServicePriorityExpress, Enabled: false},
	)
	carrier := &fakeCarrier{rates: []services.ShippingRate{
		{Service: "GROUND_ADVANTAGE", ServiceName: "Ground Advantage", Rate: "10.00", Currency: "USD", DeliveryDays: "3"},
		{Service: "PRIORITY", ServiceName: "Priority Mail", Rate: "15.50", Currency: "USD"},
		{Service: "PRIORITY_EXPRESS", ServiceName: "Priority Mail Express", Rate: "30.00", Currency: "USD"},
		{Service: "MEDIA_MAIL", ServiceName: "Media Mail", Rate: "4.00", Currency: "USD"},
	}}
	flow := newTestFlow(cfg, []*models.Product{apptesting.NewTestProduct("sku-1", 1)}, carrier)

	resp, err := flow.CalculateRates(context.Background(), &dto.CalculateRatesRequest{
		DestinationZipCode: "10001",
		Items:              []dto.CartItem{{ProductID: "sku-1", Quantity: 1}},
	}, nil)
	require.NoError(t, err)

	// Disabled and unlisted services are dropped entirely.
	require.Len(t, resp.Rates, 2)

	ground := resp.Rates[0]
	assert.Equal(t, "GROUND_ADVANTAGE", ground.Service)
	assert.Equal(t, "11.00", ground.Rate, "10 percent markup on 10.00")
	assert.Equal(t, "10.00", ground.OriginalRate)
	assert.Equal(t, "10%", ground.Markup)
	assert.Equal(t, "3", ground.DeliveryDays)

	priority := resp.Rates[1]
	assert.Equal(t, "PRIORITY", priority.Service)
	assert.Equal(t, "15.50", priority.Rate, "no markup leaves the base rate untouched")
	assert.Equal(t, "15.50", priority.OriginalRate)
	assert.Empty(t, priority.Markup)
}

func TestCalculateRates_FractionalMarkupRounding(t *testing.T) {
	cfg := apptesting.NewTestShippingConfiguration(
		models.EnabledService{Service: models.ServiceGroundAdvantage, Enabled: true, MarkupPercentage: utils.ToPtr(12.5)},
	)
	carrier := &fakeCarrier{rates: []services.ShippingRate{
		{Service: "GROUND_ADVANTAGE", ServiceName: "Ground Advantage", Rate: "8.45", Currency: "USD"},
	}}
	flow := newTestFlow(cfg, nil, carrier)

	resp, err := flow.CalculateRates(context.Background(), &dto.CalculateRatesRequest{
		DestinationZipCode: "10001",
		Items:              []dto.CartItem{{ProductID: "sku-1", Quantity: 1}},
	}, nil)
	require.NoError(t, err)
	require.Len(t, resp.Rates, 1)
	// 845 * 1.125 = 950.625 rounds to 9.51
	assert.Equal(t, "9.51", resp.Rates[0].Rate)
	assert.Equal(t, "12.5%", resp.Rates[0].Markup)
}

func TestCalculateRates_PricingFailurePropagates(t *testing.T) {
	cfg := apptesting.NewTestShippingConfiguration(models.EnabledService{
		Service: models.ServiceGroundAdvantage, Enabled: true,
	})
	carrier := &fakeCarrier{ratesErr: &services.PricingError{Message: "no rates"}}
	flow := newTestFlow(cfg, nil, carrier)

	_, err := flow.CalculateRates(context.Background(), &dto.CalculateRatesRequest{
		DestinationZipCode: "10001",
		Items:              []dto.CartItem{{ProductID: "sku-1", Quantity: 1}},
	}, nil)

	var pricingErr *services.PricingError
	require.ErrorAs(t, err, &pricingErr)
}

func TestCalculateRates_EmptyAllowListYieldsNoRates(t *testing.T) {
	cfg := apptesting.NewTestShippingConfiguration()
	carrier := &fakeCarrier{rates: []services.ShippingRate{
		{Service: "GROUND_ADVANTAGE", ServiceName: "Ground Advantage", Rate: "8.45", Currency: "USD"},
	}}
	flow := newTestFlow(cfg, nil, carrier)

	resp, err := flow.CalculateRates(context.Background(), &dto.CalculateRatesRequest{
		DestinationZipCode: "10001",
		Items:              []dto.CartItem{{ProductID: "sku-1", Quantity: 1}},
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, resp.Rates, "a config enabling nothing offers nothing")
}

func TestValidateAddress_MissingFields(t *testing.T) {
	flow := newTestFlow(apptesting.NewTestShippingConfiguration(), nil, &fakeCarrier{})

	_, err := flow.ValidateAddress(context.Background(), &dto.ValidateAddressRequest{
		StreetAddress: "123 Main St",
		City:          "Portland",
	}, nil)
	assert.True(t, IsMissingAddressFields(err))
}

func TestValidateAddress_PassThrough(t *testing.T) {
	carrier := &fakeCarrier{addrResult: &services.AddressValidationResult{
		IsValid: true,
		Address: services.Address{StreetAddress: "123 MAIN ST", City: "PORTLAND", State: "OR", ZipCode: "97201"},
		Suggestions: []services.Address{
			{StreetAddress: "123 MAIN ST STE 4", City: "PORTLAND", State: "OR", ZipCode: "97201"},
		},
	}}
	flow := newTestFlow(apptesting.NewTestShippingConfiguration(), nil, carrier)

	resp, err := flow.ValidateAddress(context.Background(), &dto.ValidateAddressRequest{
		StreetAddress: "123 Main St",
		City:          "Portland",
		State:         "OR",
		ZipCode:       "97201",
	}, nil)
	require.NoError(t, err)
	assert.True(t, resp.IsValid)
	assert.Equal(t, "123 MAIN ST", resp.Address.StreetAddress)
	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, "123 Main St", carrier.lastAddress.StreetAddress)
}

func TestValidateAddress_InvalidOutcomeIsNotError(t *testing.T) {
	carrier := &fakeCarrier{addrResult: &services.AddressValidationResult{
		IsValid: false,
		Address: services.Address{StreetAddress: "nowhere", City: "X", State: "XX", ZipCode: "00000"},
	}}
	flow := newTestFlow(apptesting.NewTestShippingConfiguration(), nil, carrier)

	resp, err := flow.ValidateAddress(context.Background(), &dto.ValidateAddressRequest{
		StreetAddress: "nowhere",
		City:          "X",
		State:         "XX",
		ZipCode:       "00000",
	}, nil)
	require.NoError(t, err)
	assert.False(t, resp.IsValid)
}
