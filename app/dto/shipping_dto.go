package dto

// CartItem is one client-supplied cart line: catalog SKU plus quantity.
type CartItem struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// CalculateRatesRequest is the inbound body for rate calculation.
type CalculateRatesRequest struct {
	DestinationZipCode string     `json:"destinationZipCode" validate:"required,min=5,max=10"`
	Items              []CartItem `json:"items" validate:"required,min=1,dive"`
}

// RateDTO is one shipping option offered to the end user. Rate holds the
// marked-up value, OriginalRate always preserves the carrier's base rate,
// and Markup carries the human-readable percentage when one applied.
type RateDTO struct {
	Service      string `json:"service"`
	ServiceName  string `json:"serviceName"`
	Rate         string `json:"rate"`
	Currency     string `json:"currency"`
	DeliveryDays string `json:"deliveryDays,omitempty"`
	DeliveryDate string `json:"deliveryDate,omitempty"`
	OriginalRate string `json:"originalRate,omitempty"`
	Markup       string `json:"markup,omitempty"`
}

// CalculateRatesResponse is the payload under the success envelope.
type CalculateRatesResponse struct {
	Rates          []RateDTO `json:"rates"`
	TotalWeight    float64   `json:"totalWeight"`
	OriginZip      string    `json:"originZip"`
	DestinationZip string    `json:"destinationZip"`
}

// ValidateAddressRequest is the inbound body for address validation.
type ValidateAddressRequest struct {
	StreetAddress    string `json:"streetAddress" validate:"required"`
	SecondaryAddress string `json:"secondaryAddress,omitempty"`
	City             string `json:"city" validate:"required"`
	State            string `json:"state" validate:"required,len=2"`
	ZipCode          string `json:"zipCode" validate:"required,min=5,max=10"`
}

// AddressDTO is a postal address as echoed back by validation.
type AddressDTO struct {
	StreetAddress    string `json:"streetAddress"`
	SecondaryAddress string `json:"secondaryAddress,omitempty"`
	City             string `json:"city"`
	State            string `json:"state"`
	ZipCode          string `json:"zipCode"`
}

// ValidateAddressResponse is the payload under the success envelope.
// IsValid false is a normal business outcome, not an error.
type ValidateAddressResponse struct {
	Address     AddressDTO   `json:"address"`
	IsValid     bool         `json:"isValid"`
	Suggestions []AddressDTO `json:"suggestions,omitempty"`
}
