package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func markup(v float64) *float64 { return &v }

func TestMarkupFor(t *testing.T) {
	cfg := ShippingConfiguration{
		EnabledServices: EnabledServiceList{
			{Service: ServiceGroundAdvantage, Enabled: true, MarkupPercentage: markup(10)},
			{Service: ServicePriority, Enabled: true},
			{Service: ServicePriorityExpress, Enabled: false, MarkupPercentage: markup(25)},
		},
	}

	m, ok := cfg.MarkupFor(ServiceGroundAdvantage)
	assert.True(t, ok)
	assert.Equal(t, 10.0, m)

	m, ok = cfg.MarkupFor(ServicePriority)
	assert.True(t, ok)
	assert.Equal(t, 0.0, m, "missing markup means pass-through, not disabled")

	_, ok = cfg.MarkupFor(ServicePriorityExpress)
	assert.False(t, ok, "disabled entries are excluded even with a markup set")

	_, ok = cfg.MarkupFor(ServiceCode("MEDIA_MAIL"))
	assert.False(t, ok, "unlisted services are excluded by default")
}

func TestEnabledServiceList_ScanValue(t *testing.T) {
	list := EnabledServiceList{
		{Service: ServiceGroundAdvantage, Enabled: true, MarkupPercentage: markup(12.5)},
		{Service: ServicePriority, Enabled: false},
	}

	v, err := list.Value()
	require.NoError(t, err)

	var decoded EnabledServiceList
	require.NoError(t, decoded.Scan([]byte(v.(string))))
	require.Len(t, decoded, 2)
	assert.Equal(t, ServiceGroundAdvantage, decoded[0].Service)
	require.NotNil(t, decoded[0].MarkupPercentage)
	assert.Equal(t, 12.5, *decoded[0].MarkupPercentage)
	assert.False(t, decoded[1].Enabled)
}

func TestEnabledServiceList_ScanNil(t *testing.T) {
	var list EnabledServiceList
	require.NoError(t, list.Scan(nil))
	assert.Nil(t, list)

	v, err := list.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}
