package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sophron-goods/storefront-api/models"
	"github.com/sophron-goods/storefront-api/utils"
)

// PricingError indicates a rate lookup failed. Unlike address validation,
// pricing failures surface to the caller because the checkout cannot
// proceed without rates.
type PricingError struct {
	Message string
	Err     error
}

func (e *PricingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pricing failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("pricing failed: %s", e.Message)
}

func (e *PricingError) Unwrap() error { return e.Err }

// Address is a postal address passed to carrier operations.
type Address struct {
	StreetAddress    string
	SecondaryAddress string
	City             string
	State            string
	ZipCode          string
}

// AddressValidationResult is the outcome of a standardization lookup.
// Invalid is a normal outcome; the carrier's standardized form is echoed
// back when available.
type AddressValidationResult struct {
	IsValid     bool
	Address     Address
	Suggestions []Address
}

// RateQuery describes one package for a base-rate search.
type RateQuery struct {
	OriginZipCode      string
	DestinationZipCode string
	Weight             float64
	Length             float64
	Width              float64
	Height             float64
	MailClass          models.ServiceCode
}

// ShippingRate is one priced service option as returned by the carrier.
type ShippingRate struct {
	Service      string
	ServiceName  string
	Rate         string
	Currency     string
	DeliveryDays string
	DeliveryDate string
}

// LabelRequest describes a shipment for label generation.
type LabelRequest struct {
	From      Address
	To        Address
	Weight    float64
	Length    float64
	Width     float64
	Height    float64
	MailClass models.ServiceCode
}

// LabelResult is the generated label.
type LabelResult struct {
	TrackingNumber string
	LabelImage     string
	Postage        string
}

// TrackingEvent is one scan in a package's history.
type TrackingEvent struct {
	EventType string `json:"eventType"`
	EventCity string `json:"eventCity"`
	EventZIP  string `json:"eventZIP"`
	Timestamp string `json:"eventTimestamp"`
}

// TrackingResult is the current state of a tracked package.
type TrackingResult struct {
	TrackingNumber string          `json:"trackingNumber"`
	Status         string          `json:"statusSummary"`
	Events         []TrackingEvent `json:"trackingEvents"`
}

// CarrierService exposes the carrier operations the rest of the
// application consumes.
type CarrierService interface {
	ValidateAddress(ctx context.Context, addr Address) (*AddressValidationResult, error)
	GetShippingRates(ctx context.Context, query RateQuery) ([]ShippingRate, error)
	CreateLabel(ctx context.Context, req LabelRequest) (*LabelResult, error)
	TrackPackage(ctx context.Context, trackingNumber string) (*TrackingResult, error)
	CanCreateLabels() bool
}

// CarrierServiceImpl implements CarrierService on top of CarrierClient.
type CarrierServiceImpl struct {
	client *CarrierClient
}

// NewCarrierService creates a carrier service.
func NewCarrierService(client *CarrierClient) CarrierService {
	return &CarrierServiceImpl{client: client}
}

type carrierAddress struct {
	StreetAddress    string `json:"streetAddress"`
	SecondaryAddress string `json:"secondaryAddress,omitempty"`
	City             string `json:"city"`
	State            string `json:"state"`
	ZIPCode          string `json:"ZIPCode"`
	ZIPPlus4         string `json:"ZIPPlus4,omitempty"`
}

type carrierAddressResp struct {
	Address     *carrierAddress   `json:"address"`
	Matches     []json.RawMessage `json:"matches"`
	Corrections []carrierAddress  `json:"corrections"`
}

// ValidateAddress asks the carrier to standardize an address. Carrier
// failures of any kind degrade to an invalid result rather than an error
// so checkout flows can treat validation as advisory.
func (s *CarrierServiceImpl) ValidateAddress(ctx context.Context, addr Address) (*AddressValidationResult, error) {
	q := url.Values{}
	q.Set("streetAddress", addr.StreetAddress)
	q.Set("city", addr.City)
	q.Set("state", addr.State)
	q.Set("ZIPCode", addr.ZipCode)
	if addr.SecondaryAddress != "" {
		q.Set("secondaryAddress", addr.SecondaryAddress)
	}

	raw, err := s.client.MakeRequest(ctx, http.MethodGet, "/addresses/v3/address?"+q.Encode(), nil)
	if err != nil {
		return &AddressValidationResult{IsValid: false, Address: addr}, nil
	}

	var out carrierAddressResp
	if err := json.Unmarshal(raw, &out); err != nil || out.Address == nil {
		return &AddressValidationResult{IsValid: false, Address: addr}, nil
	}

	standardized := Address{
		StreetAddress:    out.Address.StreetAddress,
		SecondaryAddress: out.Address.SecondaryAddress,
		City:             out.Address.City,
		State:            out.Address.State,
		ZipCode:          out.Address.ZIPCode,
	}

	// Valid only when the carrier standardized the address AND matched it
	// against at least one deliverable record. An address echo with zero
	// matches means the carrier could not place it.
	result := &AddressValidationResult{IsValid: len(out.Matches) > 0, Address: standardized}
	for _, c := range out.Corrections {
		result.Suggestions = append(result.Suggestions, Address{
			StreetAddress:    c.StreetAddress,
			SecondaryAddress: c.SecondaryAddress,
			City:             c.City,
			State:            c.State,
			ZipCode:          c.ZIPCode,
		})
	}
	return result, nil
}

type carrierRateReq struct {
	OriginZIPCode      string  `json:"originZIPCode"`
	DestinationZIPCode string  `json:"destinationZIPCode"`
	Weight             float64 `json:"weight"`
	Length             float64 `json:"length"`
	Width              float64 `json:"width"`
	Height             float64 `json:"height"`
	MailClass          string  `json:"mailClass"`
	ProcessingCategory string  `json:"processingCategory"`
	RateIndicator      string  `json:"rateIndicator"`
	PriceType          string  `json:"priceType"`
	MailingDate        string  `json:"mailingDate"`
}

type carrierRate struct {
	MailClass   string  `json:"mailClass"`
	Service     string  `json:"service"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	TotalPrice  float64 `json:"totalPrice"`
	// The carrier sends deliveryDays as a bare number on some mail classes
	// and a quoted one on others; json.Number tolerates both.
	DeliveryDays json.Number `json:"deliveryDays"`
	DeliveryDate string      `json:"deliveryDate"`
}

type carrierRateResp struct {
	Rates          []carrierRate `json:"rates"`
	TotalBasePrice float64       `json:"totalBasePrice"`
}

// GetShippingRates performs a base-rate search for one package. The
// carrier is queried for commercial single-piece machinable pricing with
// today's mailing date.
func (s *CarrierServiceImpl) GetShippingRates(ctx context.Context, query RateQuery) ([]ShippingRate, error) {
	mailClass := query.MailClass
	if mailClass == "" {
		mailClass = models.ServiceGroundAdvantage
	}
	body := carrierRateReq{
		OriginZIPCode:      query.OriginZipCode,
		DestinationZIPCode: query.DestinationZipCode,
		Weight:             query.Weight,
		Length:             query.Length,
		Width:              query.Width,
		Height:             query.Height,
		MailClass:          string(mailClass),
		ProcessingCategory: "MACHINABLE",
		RateIndicator:      "SP",
		PriceType:          "COMMERCIAL",
		MailingDate:        utils.MailingDate(),
	}

	raw, err := s.client.MakeRequest(ctx, http.MethodPost, "/prices/v3/base-rates/search", body)
	if err != nil {
		return nil, &PricingError{Message: "base-rate search", Err: err}
	}

	var out carrierRateResp
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &PricingError{Message: "base-rate response", Err: err}
	}
	if len(out.Rates) == 0 {
		return nil, &PricingError{Message: "no rates returned for " + string(mailClass)}
	}

	rates := make([]ShippingRate, 0, len(out.Rates))
	for _, r := range out.Rates {
		rates = append(rates, mapCarrierRate(r, string(mailClass)))
	}
	return rates, nil
}

// mapCarrierRate normalizes one carrier rate entry. The carrier is
// inconsistent across mail classes about which fields it populates, hence
// the fallback chains.
func mapCarrierRate(r carrierRate, mailClass string) ShippingRate {
	service := r.MailClass
	if service == "" {
		service = r.Service
	}
	if service == "" {
		service = mailClass
	}
	name := r.Description
	if name == "" {
		name = r.Service
	}
	if name == "" {
		name = service
	}
	price := r.Price
	if price == 0 {
		price = r.TotalPrice
	}
	return ShippingRate{
		Service:      service,
		ServiceName:  name,
		Rate:         strconv.FormatFloat(price, 'f', 2, 64),
		Currency:     utils.RateCurrency,
		DeliveryDays: r.DeliveryDays.String(),
		DeliveryDate: r.DeliveryDate,
	}
}

type carrierLabelReq struct {
	ImageInfo struct {
		ImageType string `json:"imageType"`
		LabelType string `json:"labelType"`
	} `json:"imageInfo"`
	ToAddress     carrierAddress `json:"toAddress"`
	FromAddress   carrierAddress `json:"fromAddress"`
	PackageDesc   carrierPkgDesc `json:"packageDescription"`
	CustomerRegID string         `json:"customerRegistrationId"`
	MailerID      string         `json:"mailerId"`
}

type carrierPkgDesc struct {
	MailClass          string  `json:"mailClass"`
	Weight             float64 `json:"weight"`
	Length             float64 `json:"length"`
	Width              float64 `json:"width"`
	Height             float64 `json:"height"`
	ProcessingCategory string  `json:"processingCategory"`
	RateIndicator      string  `json:"rateIndicator"`
	MailingDate        string  `json:"mailingDate"`
}

type carrierLabelResp struct {
	TrackingNumber string `json:"trackingNumber"`
	LabelImage     string `json:"labelImage"`
	Postage        struct {
		TotalPrice float64 `json:"totalPrice"`
	} `json:"postage"`
}

// CreateLabel generates a 4x6 PDF label. The account must be provisioned
// with a customer registration ID and mailer ID.
func (s *CarrierServiceImpl) CreateLabel(ctx context.Context, req LabelRequest) (*LabelResult, error) {
	if !s.client.CanCreateLabels() {
		return nil, fmt.Errorf("label generation requires customer registration ID and mailer ID")
	}
	mailClass := req.MailClass
	if mailClass == "" {
		mailClass = models.ServiceGroundAdvantage
	}

	var body carrierLabelReq
	body.ImageInfo.ImageType = "PDF"
	body.ImageInfo.LabelType = "4X6LABEL"
	body.ToAddress = toCarrierAddress(req.To)
	body.FromAddress = toCarrierAddress(req.From)
	body.PackageDesc = carrierPkgDesc{
		MailClass:          string(mailClass),
		Weight:             req.Weight,
		Length:             req.Length,
		Width:              req.Width,
		Height:             req.Height,
		ProcessingCategory: "MACHINABLE",
		RateIndicator:      "SP",
		MailingDate:        utils.MailingDate(),
	}
	body.CustomerRegID = s.client.CustomerRegistrationID()
	body.MailerID = s.client.MailerID()

	raw, err := s.client.MakeRequest(ctx, http.MethodPost, "/labels/v3/label", body)
	if err != nil {
		return nil, err
	}
	var out carrierLabelResp
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("label response: %w", err)
	}
	return &LabelResult{
		TrackingNumber: out.TrackingNumber,
		LabelImage:     out.LabelImage,
		Postage:        strconv.FormatFloat(out.Postage.TotalPrice, 'f', 2, 64),
	}, nil
}

// TrackPackage fetches the scan history for a tracking number.
func (s *CarrierServiceImpl) TrackPackage(ctx context.Context, trackingNumber string) (*TrackingResult, error) {
	raw, err := s.client.MakeRequest(ctx, http.MethodGet, "/tracking/v3/tracking/"+url.PathEscape(trackingNumber)+"?expand=DETAIL", nil)
	if err != nil {
		return nil, err
	}
	var out TrackingResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("tracking response: %w", err)
	}
	return &out, nil
}

// CanCreateLabels reports whether the underlying account can generate labels.
func (s *CarrierServiceImpl) CanCreateLabels() bool {
	return s.client.CanCreateLabels()
}

func toCarrierAddress(a Address) carrierAddress {
	return carrierAddress{
		StreetAddress:    a.StreetAddress,
		SecondaryAddress: a.SecondaryAddress,
		City:             a.City,
		State:            a.State,
		ZIPCode:          a.ZipCode,
	}
}
