// Package guard evaluates the radar track set each frame against a
// YAML-defined rule set and emits edge-triggered, debounced guard alerts
// (spec.md §4.2). The rule set is loaded from guard_rules.yaml the way
// the teacher's internal/config package loads internal/config/tuning.go's
// JSON tuning file, but in YAML since the rest of the pack (yaml.v3) is
// the ecosystem's config-file library of choice for rule sets like this.
package guard

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/qiki-dtmp/core/internal/contracts"
)

// Canonical rule IDs (spec.md §4.2).
const (
	RuleUnknownContactClose     = "UNKNOWN_CONTACT_CLOSE"
	RuleFoeTransponderOffApproach = "FOE_TRANSPONDER_OFF_APPROACH"
	RuleSpoofingDetected        = "SPOOFING_DETECTED"
)

// Rule is one entry of guard_rules.yaml.
type Rule struct {
	ID           string  `yaml:"id"`
	Severity     string  `yaml:"severity"`
	RangeLessM   float64 `yaml:"range_less_m,omitempty"`
	ClosingMS    float64 `yaml:"closing_speed_ms,omitempty"`
	Enabled      bool    `yaml:"enabled"`
}

// RuleSet is the parsed contents of guard_rules.yaml.
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRuleSet reads and parses a guard_rules.yaml file.
func LoadRuleSet(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("guard: read rule set: %w", err)
	}
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("guard: parse rule set: %w", err)
	}
	return rs, nil
}

// DefaultRuleSet is used when no guard_rules.yaml is supplied, matching
// the three canonical rules named in spec.md §4.2.
func DefaultRuleSet() RuleSet {
	return RuleSet{Rules: []Rule{
		{ID: RuleUnknownContactClose, Severity: "WARN", RangeLessM: 100, Enabled: true},
		{ID: RuleFoeTransponderOffApproach, Severity: "WARN", ClosingMS: 0, Enabled: true},
		{ID: RuleSpoofingDetected, Severity: "ERROR", Enabled: true},
	}}
}

func (rs RuleSet) find(id string) (Rule, bool) {
	for _, r := range rs.Rules {
		if r.ID == id && r.Enabled {
			return r, true
		}
	}
	return Rule{}, false
}

// Alert is one guard alert, emitted on the guard alert subject
// (spec.md §4.2: "{category:\"radar\", kind:\"guard_alert\", rule_id,
// severity, target_track_id, ts}").
type Alert struct {
	RuleID        string
	Severity      string
	TargetTrackID string
	TsEpoch       float64
}

type openAlert struct {
	firstSeen time.Time
}

// Engine evaluates RuleSet against a track set each tick and debounces
// repeat firings for the same (rule_id, target) key, mirroring the
// debounce semantics spec.md §4.2 assigns to the guard-alert/incident
// boundary so a confirmed guard condition does not re-fire every tick.
type Engine struct {
	rules          RuleSet
	debounceWindow time.Duration
	open           map[string]openAlert
}

// NewEngine constructs an Engine. debounceWindow defaults to 20s if zero,
// matching scenario S3's evaluation horizon.
func NewEngine(rules RuleSet, debounceWindow time.Duration) *Engine {
	if debounceWindow <= 0 {
		debounceWindow = 20 * time.Second
	}
	return &Engine{rules: rules, debounceWindow: debounceWindow, open: make(map[string]openAlert)}
}

// Evaluate runs every enabled rule over tracks and returns the alerts
// that should be published this tick: a rule fires only on the rising
// edge of its condition for a given target, or again after the debounce
// window has elapsed for that (rule_id, target) key.
func (e *Engine) Evaluate(now time.Time, tracks []contracts.RadarTrack, tsEpoch float64) []Alert {
	firing := map[string]bool{}
	var alerts []Alert

	evalRule := func(ruleID string, matches []string, severity string) {
		for _, target := range matches {
			firing[key(ruleID, target)] = true
		}
		for _, target := range matches {
			k := key(ruleID, target)
			prev, wasOpen := e.open[k]
			if wasOpen && now.Sub(prev.firstSeen) < e.debounceWindow {
				continue
			}
			e.open[k] = openAlert{firstSeen: now}
			alerts = append(alerts, Alert{RuleID: ruleID, Severity: severity, TargetTrackID: target, TsEpoch: tsEpoch})
		}
	}

	if rule, ok := e.rules.find(RuleUnknownContactClose); ok {
		var matches []string
		for _, tr := range tracks {
			if tr.RangeBand == contracts.BandSR && !tr.IDPresent && rangeOf(tr) < rule.RangeLessM {
				matches = append(matches, tr.ID)
			}
		}
		evalRule(RuleUnknownContactClose, matches, rule.Severity)
	}

	if rule, ok := e.rules.find(RuleFoeTransponderOffApproach); ok {
		var matches []string
		for _, tr := range tracks {
			if tr.RangeBand == contracts.BandSR && tr.TransponderMode == contracts.XpdrOff && closingSpeed(tr) > rule.ClosingMS {
				matches = append(matches, tr.ID)
			}
		}
		evalRule(RuleFoeTransponderOffApproach, matches, rule.Severity)
	}

	if rule, ok := e.rules.find(RuleSpoofingDetected); ok {
		matches := detectIdentityCollisions(tracks)
		evalRule(RuleSpoofingDetected, matches, rule.Severity)
	}

	// Stale (rule_id, target) keys not seen firing this tick are forgotten
	// so a future re-occurrence is treated as a fresh rising edge.
	for k := range e.open {
		if !firing[k] {
			delete(e.open, k)
		}
	}

	return alerts
}

func key(ruleID, target string) string {
	return ruleID + "|" + target
}

func rangeOf(tr contracts.RadarTrack) float64 {
	return math.Hypot(tr.Pose.Position.X, tr.Pose.Position.Y)
}

func closingSpeed(tr contracts.RadarTrack) float64 {
	// Negative radial velocity (toward ego) is "closing"; report its
	// magnitude so a threshold of 0 means "any closing speed".
	x, y := tr.Pose.Position.X, tr.Pose.Position.Y
	vx, vy := tr.Pose.Velocity.X, tr.Pose.Velocity.Y
	r := math.Hypot(x, y)
	if r == 0 {
		return 0
	}
	radial := (x*vx + y*vy) / r
	if radial >= 0 {
		return 0
	}
	return -radial
}

func detectIdentityCollisions(tracks []contracts.RadarTrack) []string {
	byID := map[string][]string{}
	for _, tr := range tracks {
		if tr.IDPresent && tr.TransponderID != "" {
			byID[tr.TransponderID] = append(byID[tr.TransponderID], tr.ID)
		}
	}
	var collided []string
	for _, trackIDs := range byID {
		if len(trackIDs) > 1 {
			collided = append(collided, trackIDs...)
		}
	}
	return collided
}
