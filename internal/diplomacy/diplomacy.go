// Package diplomacy implements the instrument layer: agreements, tariffs,
// covert actions, UN resolutions, crises, soft power, and summits. Each
// instrument is a pure decision plus a registry mutation; insufficient
// resources fail with a user-facing message and no state change.
package diplomacy

import (
	"github.com/talgya/hegemon/internal/entropy"
	"github.com/talgya/hegemon/internal/event"
	"github.com/talgya/hegemon/internal/nation"
	"github.com/talgya/hegemon/internal/war"
)

// Office is the handle every instrument invocation goes through.
type Office struct {
	Reg    *nation.Registry
	Wars   *war.Ledger
	Events *event.Log
	Rng    entropy.Source

	resolutions []*Resolution
	crises      []*Crisis
	summits     []*Summit
}

// NewOffice wires the instrument layer to its collaborators.
func NewOffice(reg *nation.Registry, wars *war.Ledger, events *event.Log, rng entropy.Source) *Office {
	return &Office{Reg: reg, Wars: wars, Events: events, Rng: rng}
}

// acceptChance is the step function mapping current relations to the
// acceptance probability of an agreement type.
func acceptChance(t nation.AgreementType, relations int) float64 {
	switch t {
	case nation.AgreementTrade:
		if relations > -10 {
			return 0.8
		}
		return 0.1
	case nation.AgreementNonAggression:
		if relations > 0 {
			return 0.7
		}
		return 0.1
	case nation.AgreementMilitaryAlliance:
		if relations > 70 {
			return 0.6
		}
		return 0
	case nation.AgreementFreeTrade:
		if relations > 50 {
			return 0.7
		}
		return 0.1
	case nation.AgreementSecurityGuarantee:
		if relations < -50 {
			return 0.1
		}
		return 0.95
	}
	return 0
}
