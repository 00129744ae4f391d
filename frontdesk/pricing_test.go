package frontdesk_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/generic"
)

var doble = frontdesk.RoomType{
	AdultsMax: 2, AdultsExtraMax: 1, AdultExtraPrice: decimal.NewFromInt(200),
	ChildrenMax: 1, ChildrenExtraMax: 1, ChildExtraPrice: decimal.NewFromInt(100),
	ExtraBedsMax: 1, ExtraBedPrice: decimal.NewFromInt(150),
}

func TestPrice_ExtraAdultWithTax(t *testing.T) {
	// GIVEN: 3 adults, 2 nights at 1000 with one extra adult allowed at 200
	q, err := frontdesk.Price(doble, decimal.NewFromInt(1000), 2, frontdesk.Occupancy{Adults: 3})

	// THEN
	require.NoError(t, err)
	assert.Equal(t, "2000.00", q.Base.StringFixed(2))
	assert.Equal(t, 1, q.AdultsExtra)
	assert.Equal(t, "400.00", q.AdultsExtraCharge.StringFixed(2))
	assert.Equal(t, "2400.00", q.Subtotal.StringFixed(2))
	assert.Equal(t, "384.00", q.Tax.StringFixed(2))
	assert.Equal(t, "2784.00", q.Total.StringFixed(2))
}

func TestPrice_Components(t *testing.T) {
	tests := []struct {
		name  string
		rate  string
		n     int
		occ   frontdesk.Occupancy
		total string
		tax   string
	}{
		{"base only", "1000", 1, frontdesk.Occupancy{Adults: 2}, "1160.00", "160.00"},
		{"child within base", "1000", 1, frontdesk.Occupancy{Adults: 1, Children: 1}, "1160.00", "160.00"},
		{"extra child", "1000", 2, frontdesk.Occupancy{Adults: 2, Children: 2}, "2552.00", "352.00"},
		{"extra bed", "1000", 3, frontdesk.Occupancy{Adults: 2, ExtraBeds: 1}, "4002.00", "552.00"},
		{"everything", "1000", 1, frontdesk.Occupancy{Adults: 3, Children: 2, ExtraBeds: 1}, "1682.00", "232.00"},
		// 999.99 * 0.16 = 159.9984 rounds to 160.00
		{"tax rounding", "999.99", 1, frontdesk.Occupancy{Adults: 1}, "1159.99", "160.00"},
		// 0.03 * 0.16 = 0.0048 rounds to 0.00
		{"tiny rate", "0.03", 1, frontdesk.Occupancy{Adults: 1}, "0.03", "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := frontdesk.Price(doble, decimal.RequireFromString(tt.rate), tt.n, tt.occ)
			require.NoError(t, err)
			assert.Equal(t, tt.total, q.Total.StringFixed(2))
			assert.Equal(t, tt.tax, q.Tax.StringFixed(2))
			assert.True(t, q.Total.Equal(q.Subtotal.Add(q.Tax)))
		})
	}
}

func TestPrice_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		occ   frontdesk.Occupancy
		field string
	}{
		{"zero nights", 0, frontdesk.Occupancy{Adults: 1}, "check_out"},
		{"no adults", 1, frontdesk.Occupancy{}, "adults"},
		{"too many adults", 1, frontdesk.Occupancy{Adults: 4}, "adults"},
		{"too many children", 1, frontdesk.Occupancy{Adults: 1, Children: 3}, "children"},
		{"negative children", 1, frontdesk.Occupancy{Adults: 1, Children: -1}, "children"},
		{"too many beds", 1, frontdesk.Occupancy{Adults: 1, ExtraBeds: 2}, "extra_beds"},
		{"negative beds", 1, frontdesk.Occupancy{Adults: 1, ExtraBeds: -1}, "extra_beds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := frontdesk.Price(doble, decimal.NewFromInt(1000), tt.n, tt.occ)
			var ve *generic.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

// Adding a guest, a bed or a night never lowers the total.
func TestPrice_Monotonic(t *testing.T) {
	rate := decimal.RequireFromString("873.45")
	total := func(n, adults, children, beds int) decimal.Decimal {
		q, err := frontdesk.Price(doble, rate, n, frontdesk.Occupancy{Adults: adults, Children: children, ExtraBeds: beds})
		require.NoError(t, err)
		return q.Total
	}
	for n := 1; n <= 4; n++ {
		for a := 1; a <= 3; a++ {
			for c := 0; c <= 2; c++ {
				for b := 0; b <= 1; b++ {
					base := total(n, a, c, b)
					if a < 3 {
						assert.True(t, total(n, a+1, c, b).GreaterThanOrEqual(base), "adults %d->%d", a, a+1)
					}
					if c < 2 {
						assert.True(t, total(n, a, c+1, b).GreaterThanOrEqual(base), "children %d->%d", c, c+1)
					}
					if b < 1 {
						assert.True(t, total(n, a, c, b+1).GreaterThan(base), "beds")
					}
					if n < 4 {
						assert.True(t, total(n+1, a, c, b).GreaterThan(base), "nights")
					}
				}
			}
		}
	}
}
