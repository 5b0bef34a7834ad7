package store

import (
	"encoding/json"
	"fmt"
)

// Store is a persistent key-value store. A missing key is a normal,
// non-error condition reported through the boolean.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// AlertRule is the user-configured threshold setup for one ticker.
// ThresholdPercents are entry levels below the base price; the dispatcher
// evaluates them deepest-first. The pipeline never mutates rules.
type AlertRule struct {
	Symbol            string    `json:"symbol"`
	BasePrice         float64   `json:"base_price"`
	ThresholdPercents []float64 `json:"threshold_percents"`
	Enabled           bool      `json:"enabled"`
}

func ruleKey(symbol string) string {
	return "alert_rule_" + symbol
}

// LoadRule reads a ticker's alert rule. ok is false when none is stored.
func LoadRule(s Store, symbol string) (AlertRule, bool, error) {
	raw, ok, err := s.Get(ruleKey(symbol))
	if err != nil || !ok {
		return AlertRule{}, false, err
	}
	var rule AlertRule
	if err := json.Unmarshal([]byte(raw), &rule); err != nil {
		return AlertRule{}, false, fmt.Errorf("decode rule for %s: %w", symbol, err)
	}
	return rule, true, nil
}

// SaveRule persists a ticker's alert rule.
func SaveRule(s Store, rule AlertRule) error {
	raw, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("encode rule for %s: %w", rule.Symbol, err)
	}
	return s.Set(ruleKey(rule.Symbol), string(raw))
}
