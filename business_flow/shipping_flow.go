package businessflow

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sophron-goods/storefront-api/app/dto"
	"github.com/sophron-goods/storefront-api/app/services"
	"github.com/sophron-goods/storefront-api/models"
	"github.com/sophron-goods/storefront-api/repository"
	"github.com/sophron-goods/storefront-api/utils"
)

// ShippingFlow defines shipping operations exposed to the storefront.
type ShippingFlow interface {
	CalculateRates(ctx context.Context, req *dto.CalculateRatesRequest, metadata *ClientMetadata) (*dto.CalculateRatesResponse, error)
	ValidateAddress(ctx context.Context, req *dto.ValidateAddressRequest, metadata *ClientMetadata) (*dto.ValidateAddressResponse, error)
}

// ShippingFlowImpl implements ShippingFlow.
type ShippingFlowImpl struct {
	configRepo  repository.ShippingConfigurationRepository
	productRepo repository.ProductRepository
	carrier     services.CarrierService
	cache       *redis.Client
}

// NewShippingFlow creates a new shipping flow. cache may be nil; the flow
// then reads the active configuration from the database on every request.
func NewShippingFlow(
	configRepo repository.ShippingConfigurationRepository,
	productRepo repository.ProductRepository,
	carrier services.CarrierService,
	cache *redis.Client,
) ShippingFlow {
	return &ShippingFlowImpl{
		configRepo:  configRepo,
		productRepo: productRepo,
		carrier:     carrier,
		cache:       cache,
	}
}

func (f *ShippingFlowImpl) CalculateRates(ctx context.Context, req *dto.CalculateRatesRequest, metadata *ClientMetadata) (*dto.CalculateRatesResponse, error) {
	if req == nil {
		return nil, NewBusinessError("INVALID_REQUEST", "request is required", nil)
	}
	if strings.TrimSpace(req.DestinationZipCode) == "" {
		return nil, NewBusinessError("DESTINATION_ZIP_REQUIRED", "destination ZIP code is required", ErrDestinationZipRequired)
	}
	if len(req.Items) == 0 {
		return nil, NewBusinessError("NO_LINE_ITEMS", "at least one cart item is required", ErrNoLineItems)
	}
	skus := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, NewBusinessError("INVALID_QUANTITY", "item quantity must be at least 1", ErrInvalidQuantity)
		}
		skus = append(skus, item.ProductID)
	}

	// Configuration and product lookups are independent; run them together.
	var (
		wg          sync.WaitGroup
		cfg         *models.ShippingConfiguration
		cfgErr      error
		products    []*models.Product
		productsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		cfg, cfgErr = f.activeConfiguration(ctx)
	}()
	go func() {
		defer wg.Done()
		products, productsErr = f.productRepo.BySKUs(ctx, skus)
	}()
	wg.Wait()

	if cfgErr != nil {
		return nil, cfgErr
	}
	if cfg == nil {
		return nil, NewBusinessError("NO_ACTIVE_SHIPPING_CONFIGURATION", "no active shipping configuration found", ErrNoActiveShippingConfiguration)
	}
	if productsErr != nil {
		return nil, productsErr
	}

	productBySKU := make(map[string]*models.Product, len(products))
	for _, p := range products {
		productBySKU[p.SKU] = p
	}

	totalWeight := 0.0
	for _, item := range req.Items {
		weight := cfg.DefaultWeight
		if p, ok := productBySKU[item.ProductID]; ok && p.Weight != nil && *p.Weight > 0 {
			weight = *p.Weight
		} else {
			log.Printf("shipping: product %q has no weight, using default %.2f", item.ProductID, cfg.DefaultWeight)
		}
		totalWeight += weight * float64(item.Quantity)
	}

	carrierRates, err := f.carrier.GetShippingRates(ctx, services.RateQuery{
		OriginZipCode:      cfg.FromZipCode,
		DestinationZipCode: req.DestinationZipCode,
		Weight:             totalWeight,
		Length:             cfg.DefaultLength,
		Width:              cfg.DefaultWidth,
		Height:             cfg.DefaultHeight,
	})
	if err != nil {
		return nil, err
	}

	rates := make([]dto.RateDTO, 0, len(carrierRates))
	for _, r := range carrierRates {
		markup, enabled := cfg.MarkupFor(models.ServiceCode(r.Service))
		if !enabled {
			continue
		}
		rates = append(rates, applyMarkup(r, markup))
	}

	return &dto.CalculateRatesResponse{
		Rates:          rates,
		TotalWeight:    totalWeight,
		OriginZip:      cfg.FromZipCode,
		DestinationZip: req.DestinationZipCode,
	}, nil
}

// applyMarkup converts one carrier rate into the storefront shape, marking
// up the price when the service carries a markup percentage.
func applyMarkup(r services.ShippingRate, markup float64) dto.RateDTO {
	out := dto.RateDTO{
		Service:      r.Service,
		ServiceName:  r.ServiceName,
		Rate:         r.Rate,
		Currency:     r.Currency,
		DeliveryDays: r.DeliveryDays,
		DeliveryDate: r.DeliveryDate,
		OriginalRate: r.Rate,
	}
	if markup <= 0 {
		return out
	}
	base, err := utils.ParseCents(r.Rate)
	if err != nil {
		log.Printf("shipping: unparseable carrier rate %q for %s, passing through", r.Rate, r.Service)
		return out
	}
	out.Rate = base.ApplyMarkup(markup).String()
	out.Markup = utils.FormatPercent(markup)
	return out
}

func (f *ShippingFlowImpl) ValidateAddress(ctx context.Context, req *dto.ValidateAddressRequest, metadata *ClientMetadata) (*dto.ValidateAddressResponse, error) {
	if req == nil {
		return nil, NewBusinessError("INVALID_REQUEST", "request is required", nil)
	}
	if strings.TrimSpace(req.StreetAddress) == "" || strings.TrimSpace(req.City) == "" ||
		strings.TrimSpace(req.State) == "" || strings.TrimSpace(req.ZipCode) == "" {
		return nil, NewBusinessError("MISSING_ADDRESS_FIELDS", "street address, city, state and ZIP code are required", ErrMissingAddressFields)
	}

	result, err := f.carrier.ValidateAddress(ctx, services.Address{
		StreetAddress:    req.StreetAddress,
		SecondaryAddress: req.SecondaryAddress,
		City:             req.City,
		State:            strings.ToUpper(strings.TrimSpace(req.State)),
		ZipCode:          req.ZipCode,
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.ValidateAddressResponse{
		Address: toAddressDTO(result.Address),
		IsValid: result.IsValid,
	}
	for _, s := range result.Suggestions {
		resp.Suggestions = append(resp.Suggestions, toAddressDTO(s))
	}
	return resp, nil
}

func toAddressDTO(a services.Address) dto.AddressDTO {
	return dto.AddressDTO{
		StreetAddress:    a.StreetAddress,
		SecondaryAddress: a.SecondaryAddress,
		City:             a.City,
		State:            a.State,
		ZipCode:          a.ZipCode,
	}
}

// activeConfiguration returns the active shipping configuration, consulting
// the short-lived cache first when one is wired in. Cache failures fall
// back to the database.
func (f *ShippingFlowImpl) activeConfiguration(ctx context.Context) (*models.ShippingConfiguration, error) {
	if f.cache != nil {
		raw, err := f.cache.Get(ctx, utils.ActiveConfigCacheKey).Result()
		if err == nil {
			var cfg models.ShippingConfiguration
			if jsonErr := json.Unmarshal([]byte(raw), &cfg); jsonErr == nil {
				return &cfg, nil
			}
		} else if err != redis.Nil {
			log.Printf("shipping: config cache read failed: %v", err)
		}
	}

	cfg, err := f.configRepo.Active(ctx)
	if err != nil {
		return nil, err
	}
	if cfg != nil && f.cache != nil {
		if raw, err := json.Marshal(cfg); err == nil {
			if err := f.cache.Set(ctx, utils.ActiveConfigCacheKey, raw, utils.ActiveConfigCacheTTL).Err(); err != nil {
				log.Printf("shipping: config cache write failed: %v", err)
			}
		}
	}
	return cfg, nil
}
