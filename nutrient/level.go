// Package nutrient holds the N/P/K advisory rules for wheat and rice: growth
// stage thresholds, base requirements, the ordered adjustment chains and the
// kg/acre quantity ranges.
package nutrient

import (
	"strconv"
	"strings"
)

// Level is an ordinal nutrient requirement. The zero value is Low.
type Level int

const (
	Low Level = iota
	Medium
	High
)

const maxLevel = High

var levelNames = [...]string{"low", "medium", "high"}

// LevelFromIndex maps an index to a Level, saturating at Low and High.
func LevelFromIndex(i int) Level {
	if i < int(Low) {
		return Low
	}
	if i > int(maxLevel) {
		return maxLevel
	}
	return Level(i)
}

// Index returns the arithmetic position of l (0, 1 or 2).
func (l Level) Index() int { return int(l) }

// Shift moves l by delta steps and clamps the result.
func (l Level) Shift(delta int) Level { return LevelFromIndex(l.Index() + delta) }

func (l Level) String() string {
	if l < Low || l > maxLevel {
		return "level(" + strconv.Itoa(int(l)) + ")"
	}
	return levelNames[l]
}

// Label is the upper-case form shown to farmers ("HIGH").
func (l Level) Label() string { return strings.ToUpper(l.String()) }

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Level) UnmarshalText(b []byte) error { return unmarshalEnum(l, string(b), ParseLevel) }

// ParseLevel accepts "low", "medium" or "high" in any case.
func ParseLevel(s string) (Level, error) {
	switch norm(s) {
	case "low":
		return Low, nil
	case "medium":
		return Medium, nil
	case "high":
		return High, nil
	}
	return Low, invalid("level", s)
}

// Prior describes how much of a nutrient was applied last time. None is only
// ever an input.
type Prior int

const (
	priorUnset Prior = iota
	PriorNone
	PriorLow
	PriorMedium
	PriorHigh
)

var priorNames = map[Prior]string{
	PriorNone:   "none",
	PriorLow:    "low",
	PriorMedium: "medium",
	PriorHigh:   "high",
}

func (p Prior) String() string { return priorNames[p] }

func (p Prior) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Prior) UnmarshalText(b []byte) error { return unmarshalEnum(p, string(b), ParsePrior) }

// ParsePrior accepts "none", "low", "medium" or "high" in any case.
func ParsePrior(s string) (Prior, error) { return parseEnum("prior_level", s, priorNames) }

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
