package service

import "github.com/nandanugg/fleet-geofence/module/geofence/domain"

type Outcome int

const (
	// OutcomeNone means the vehicle stayed in the same containment state.
	OutcomeNone Outcome = iota
	// OutcomeFirstObservation means there was no previous snapshot and nothing to raise.
	OutcomeFirstObservation
	// OutcomeBenign is a containment change that does not break a rule.
	OutcomeBenign
	// OutcomeViolation means at least one rule was broken.
	OutcomeViolation
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeFirstObservation:
		return "first_observation"
	case OutcomeBenign:
		return "benign"
	case OutcomeViolation:
		return "violation"
	}
	return "unknown"
}

type EffectType int

const (
	EffectRaise EffectType = iota + 1
	EffectClear
)

// Effect is one registry change implied by a transition.
type Effect struct {
	Type EffectType
	Key  domain.ViolationKey
	Zone domain.ZoneRef
}

type Transition struct {
	Outcome Outcome
	Effects []Effect
}

func (t Transition) Raised() []Effect {
	var out []Effect
	for _, e := range t.Effects {
		if e.Type == EffectRaise {
			out = append(out, e)
		}
	}
	return out
}

// DetectTransition classifies the change from prev to cur for one vehicle. prev
// is nil when the vehicle has never been observed.
//
// A first observation inside a FORBIDDEN zone is a violation, while a first
// observation inside a STAY_IN zone is not. Leaving a FORBIDDEN zone clears its
// entry violation; leaving a STAY_IN zone raises an exit violation that only
// re-entry or an operator clear removes. Moving directly from zone A to zone B
// applies the exit rules of A and then the entry rules of B.
func DetectTransition(vehicleID string, prev *domain.ContainmentSnapshot, cur domain.ContainmentSnapshot) Transition {
	if prev == nil {
		if cur.Inside && cur.ZoneRule == domain.RuleForbidden {
			return Transition{Outcome: OutcomeViolation, Effects: []Effect{raiseEffect(vehicleID, cur.Zone(), domain.ViolationEnter)}}
		}
		if cur.Inside {
			return Transition{Outcome: OutcomeBenign}
		}
		return Transition{Outcome: OutcomeFirstObservation}
	}

	if prev.Inside && cur.Inside && prev.ZoneID == cur.ZoneID {
		return Transition{Outcome: OutcomeNone}
	}
	if !prev.Inside && !cur.Inside {
		return Transition{Outcome: OutcomeNone}
	}

	var effects []Effect
	if prev.Inside {
		effects = append(effects, exitEffects(vehicleID, prev.Zone())...)
	}
	if cur.Inside {
		effects = append(effects, entryEffects(vehicleID, cur.Zone())...)
	}

	outcome := OutcomeBenign
	for _, e := range effects {
		if e.Type == EffectRaise {
			outcome = OutcomeViolation
			break
		}
	}
	return Transition{Outcome: outcome, Effects: effects}
}

func entryEffects(vehicleID string, z domain.ZoneRef) []Effect {
	switch z.Rule {
	case domain.RuleForbidden:
		return []Effect{raiseEffect(vehicleID, z, domain.ViolationEnter)}
	case domain.RuleStayIn:
		return []Effect{clearEffect(vehicleID, z, domain.ViolationExit)}
	}
	return nil
}

func exitEffects(vehicleID string, z domain.ZoneRef) []Effect {
	switch z.Rule {
	case domain.RuleForbidden:
		return []Effect{clearEffect(vehicleID, z, domain.ViolationEnter)}
	case domain.RuleStayIn:
		return []Effect{raiseEffect(vehicleID, z, domain.ViolationExit)}
	}
	return nil
}

func raiseEffect(vehicleID string, z domain.ZoneRef, kind domain.ViolationKind) Effect {
	return Effect{Type: EffectRaise, Key: domain.ViolationKey{VehicleID: vehicleID, ZoneID: z.ID, Kind: kind}, Zone: z}
}

func clearEffect(vehicleID string, z domain.ZoneRef, kind domain.ViolationKind) Effect {
	return Effect{Type: EffectClear, Key: domain.ViolationKey{VehicleID: vehicleID, ZoneID: z.ID, Kind: kind}, Zone: z}
}
