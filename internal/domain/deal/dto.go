package deal

import "time"

type createDealRequest struct {
	ListingID string `json:"listing_id" validate:"required,uuid"`
}

type moveDealRequest struct {
	Stage string `json:"stage" validate:"required,deal_stage"`
}

type releaseDealRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// dealResponse carries the deal plus the derived timer flag
type dealResponse struct {
	*Deal
	TimerExpired bool `json:"timer_expired"`
}

type releaseResponse struct {
	Deal           dealResponse `json:"deal"`
	CreditsAwarded int          `json:"credits_awarded"`
}

func toDealResponse(d *Deal, now time.Time) dealResponse {
	return dealResponse{Deal: d, TimerExpired: d.TimerExpired(now)}
}

func toDealResponses(deals []Deal, now time.Time) []dealResponse {
	out := make([]dealResponse, 0, len(deals))
	for i := range deals {
		out = append(out, toDealResponse(&deals[i], now))
	}
	return out
}
