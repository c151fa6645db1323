package instruments

import (
	"sort"
	"time"

	"github.com/quantrail/tickvault/internal/model"
)

// SelectorConfig bounds the subscription universe for one session.
type SelectorConfig struct {
	Underlying          string  // e.g., "BANKNIFTY"
	StrikeWindow        float64 // Half-width of the weekly strike band around ATM
	MonthlyStrikeWindow float64 // Half-width of the monthly band (tighter)
	WeeklyLimit         int     // Max weekly/near-term options
	MonthlyLimit        int     // Max monthly supplements
	FallbackLimit       int     // Max instruments in the emergency fallback
	MinWeekly           int     // Below this, monthly contracts supplement
}

// DefaultSelectorConfig returns the production selection bounds.
func DefaultSelectorConfig(underlying string) SelectorConfig {
	return SelectorConfig{
		Underlying:          underlying,
		StrikeWindow:        2000,
		MonthlyStrikeWindow: 1000,
		WeeklyLimit:         100,
		MonthlyLimit:        50,
		FallbackLimit:       20,
		MinWeekly:           20,
	}
}

// Select returns the instrument tokens to subscribe for the session: the two
// nearest futures, weekly options within the strike band around atm, monthly
// options as a supplement when weekly coverage is thin, and an emergency
// fallback when nothing else matched.
func Select(cfg SelectorConfig, insts []model.Instrument, today time.Time, atm float64) []int64 {
	var futures, options []model.Instrument
	for _, inst := range insts {
		if inst.Underlying != cfg.Underlying {
			continue
		}
		switch inst.Type {
		case "FUT":
			futures = append(futures, inst)
		case "CE", "PE":
			options = append(options, inst)
		}
	}

	var tokens []int64

	sort.Slice(futures, func(i, j int) bool { return futures[i].Expiry.Before(futures[j].Expiry) })
	for i := 0; i < len(futures) && i < 2; i++ {
		tokens = append(tokens, futures[i].InstrumentID)
	}

	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	weeklyMin, weeklyMax := day.AddDate(0, 0, 1), day.AddDate(0, 0, 14)
	monthlyMin, monthlyMax := day.AddDate(0, 0, 15), day.AddDate(0, 0, 45)

	sort.Slice(options, func(i, j int) bool {
		if !options[i].Expiry.Equal(options[j].Expiry) {
			return options[i].Expiry.Before(options[j].Expiry)
		}
		return options[i].Strike < options[j].Strike
	})

	weekly := 0
	for _, opt := range options {
		if weekly >= cfg.WeeklyLimit {
			break
		}
		if opt.Expiry.Before(weeklyMin) || opt.Expiry.After(weeklyMax) {
			continue
		}
		if opt.Strike < atm-cfg.StrikeWindow || opt.Strike > atm+cfg.StrikeWindow {
			continue
		}
		tokens = append(tokens, opt.InstrumentID)
		weekly++
	}

	if weekly < cfg.MinWeekly {
		monthly := 0
		for _, opt := range options {
			if monthly >= cfg.MonthlyLimit {
				break
			}
			if opt.Expiry.Before(monthlyMin) || opt.Expiry.After(monthlyMax) {
				continue
			}
			if opt.Strike < atm-cfg.MonthlyStrikeWindow || opt.Strike > atm+cfg.MonthlyStrikeWindow {
				continue
			}
			tokens = append(tokens, opt.InstrumentID)
			monthly++
		}
	}

	if len(tokens) == 0 {
		for _, inst := range insts {
			if inst.Underlying != cfg.Underlying {
				continue
			}
			switch inst.Type {
			case "FUT", "CE", "PE":
				tokens = append(tokens, inst.InstrumentID)
			}
			if len(tokens) >= cfg.FallbackLimit {
				break
			}
		}
	}

	return tokens
}
