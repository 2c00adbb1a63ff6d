package query

import "SignalDesk/internal/domain/models"

// Summary aggregates the current signal set for the dashboard header.
type Summary struct {
	Total         int     `json:"total"`
	BuySignals    int     `json:"buy_signals"`
	SellSignals   int     `json:"sell_signals"`
	HoldSignals   int     `json:"hold_signals"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// Summarize counts decision buckets and averages confidence. Pure.
func Summarize(signals []models.Signal) Summary {
	out := Summary{Total: len(signals)}
	if len(signals) == 0 {
		return out
	}
	var conf float64
	for _, s := range signals {
		switch {
		case s.Decision.IsBuy():
			out.BuySignals++
		case s.Decision.IsSell():
			out.SellSignals++
		default:
			out.HoldSignals++
		}
		conf += s.Confidence
	}
	out.AvgConfidence = conf / float64(len(signals))
	return out
}
