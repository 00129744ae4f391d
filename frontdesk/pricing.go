package frontdesk

import (
	"github.com/shopspring/decimal"
	"github.com/warp/frontdesk/generic"
)

// TaxRate is the fixed VAT applied to every stay subtotal.
var TaxRate = decimal.RequireFromString("0.16")

// Occupancy is what the guest asked for.
type Occupancy struct {
	Adults    int
	Children  int
	ExtraBeds int
}

// Quote is the priced breakdown of a stay.
type Quote struct {
	Nights              int             `json:"nights"`
	NightlyRate         decimal.Decimal `json:"nightly_rate"`
	Base                decimal.Decimal `json:"base"`
	AdultsExtra         int             `json:"adults_extra"`
	ChildrenExtra       int             `json:"children_extra"`
	AdultsExtraCharge   decimal.Decimal `json:"adults_extra_charge"`
	ChildrenExtraCharge decimal.Decimal `json:"children_extra_charge"`
	BedsExtraCharge     decimal.Decimal `json:"beds_extra_charge"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	Tax                 decimal.Decimal `json:"tax"`
	Total               decimal.Decimal `json:"total"`
}

// Price computes the stay price for a room type at rate per night.
//
//	adults_extra   = min(max(0, adults − adults_max), adults_extra_max)
//	children_extra = min(max(0, children − children_max), children_extra_max)
//	subtotal       = rate·n + adults_extra·p_a·n + children_extra·p_c·n + beds·p_b·n
//	tax            = round(subtotal · 0.16, 2)
//	total          = subtotal + tax
func Price(rt RoomType, rate decimal.Decimal, nights int, occ Occupancy) (Quote, error) {
	if nights < 1 {
		return Quote{}, generic.Invalid("check_out", "a stay must be at least 1 night")
	}
	if occ.Adults < 1 {
		return Quote{}, generic.Invalid("adults", "at least one adult is required")
	}
	if occ.Children < 0 {
		return Quote{}, generic.Invalid("children", "cannot be negative")
	}
	if occ.ExtraBeds < 0 {
		return Quote{}, generic.Invalid("extra_beds", "cannot be negative")
	}
	if limit := rt.AdultsMax + rt.AdultsExtraMax; occ.Adults > limit {
		return Quote{}, generic.Invalid("adults", "exceeds the room maximum of %d", limit)
	}
	if limit := rt.ChildrenMax + rt.ChildrenExtraMax; occ.Children > limit {
		return Quote{}, generic.Invalid("children", "exceeds the room maximum of %d", limit)
	}
	if occ.ExtraBeds > rt.ExtraBedsMax {
		return Quote{}, generic.Invalid("extra_beds", "exceeds the room maximum of %d", rt.ExtraBedsMax)
	}

	q := Quote{
		Nights:        nights,
		NightlyRate:   rate,
		AdultsExtra:   extra(occ.Adults, rt.AdultsMax, rt.AdultsExtraMax),
		ChildrenExtra: extra(occ.Children, rt.ChildrenMax, rt.ChildrenExtraMax),
	}
	q.Base = generic.PerNight(rate, 1, nights)
	q.AdultsExtraCharge = generic.PerNight(rt.AdultExtraPrice, q.AdultsExtra, nights)
	q.ChildrenExtraCharge = generic.PerNight(rt.ChildExtraPrice, q.ChildrenExtra, nights)
	q.BedsExtraCharge = generic.PerNight(rt.ExtraBedPrice, occ.ExtraBeds, nights)
	q.Subtotal = generic.RoundMoney(q.Base.Add(q.AdultsExtraCharge).Add(q.ChildrenExtraCharge).Add(q.BedsExtraCharge))
	q.Tax = generic.RoundMoney(q.Subtotal.Mul(TaxRate))
	q.Total = q.Subtotal.Add(q.Tax)
	return q, nil
}

func extra(count, included, allowance int) int {
	n := count - included
	if n < 0 {
		return 0
	}
	if n > allowance {
		return allowance
	}
	return n
}
