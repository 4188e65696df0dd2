package subtitles

import (
	"fmt"

	"curator/internal/language"
)

// Origin scopes which kind of subtitle track an attempt requests.
type Origin string

const (
	OriginManual Origin = "manual"
	OriginAuto   Origin = "auto"
	OriginAny    Origin = "any"
)

// Method tags how a transcript was obtained.
type Method string

const (
	MethodManual Method = "manual-subtitle"
	MethodAuto   Method = "auto-subtitle"
	MethodPaid   Method = "paid-api"
)

// Strategy is one language/origin combination tried on the free ladder.
type Strategy struct {
	Name     string
	Origin   Origin
	Language string
	Method   Method
}

// Ladder returns the free strategies in evaluation order: manual primary,
// manual secondary, auto primary, auto secondary, then either origin in the
// secondary language.
func Ladder(primary, secondary string) []Strategy {
	return []Strategy{
		newStrategy(OriginManual, primary, MethodManual),
		newStrategy(OriginManual, secondary, MethodManual),
		newStrategy(OriginAuto, primary, MethodAuto),
		newStrategy(OriginAuto, secondary, MethodAuto),
		// manual secondary already failed, so a hit here is automatic
		newStrategy(OriginAny, secondary, MethodAuto),
	}
}

func newStrategy(origin Origin, lang string, method Method) Strategy {
	return Strategy{
		Name:     fmt.Sprintf("%s-%s", origin, language.ToISO2(lang)),
		Origin:   origin,
		Language: lang,
		Method:   method,
	}
}

func (s Strategy) wantsManual() bool { return s.Origin == OriginManual || s.Origin == OriginAny }

func (s Strategy) wantsAuto() bool { return s.Origin == OriginAuto || s.Origin == OriginAny }
