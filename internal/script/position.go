package script

import "strings"

// Position names one of the nine stage slots a character sprite can occupy.
type Position string

const (
	PosLeft       Position = "left"
	PosNearLeft   Position = "nearleft"
	PosFarLeft    Position = "farleft"
	PosCenter     Position = "center"
	PosNearMiddle Position = "nearmiddle"
	PosFarMiddle  Position = "farmiddle"
	PosRight      Position = "right"
	PosNearRight  Position = "nearright"
	PosFarRight   Position = "farright"
)

// ParsePosition maps a script token to a stage position, case-insensitively.
// "middle" is accepted as an alias of "center".
func ParsePosition(s string) (Position, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return PosLeft, true
	case "nearleft":
		return PosNearLeft, true
	case "farleft":
		return PosFarLeft, true
	case "center", "middle":
		return PosCenter, true
	case "nearmiddle":
		return PosNearMiddle, true
	case "farmiddle":
		return PosFarMiddle, true
	case "right":
		return PosRight, true
	case "nearright":
		return PosNearRight, true
	case "farright":
		return PosFarRight, true
	default:
		return "", false
	}
}
