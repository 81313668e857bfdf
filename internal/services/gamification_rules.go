package services

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// RewardRules maps activity types to crystal amounts plus the streak policy
// for daily logins. Loaded from GAMIFICATION_RULES_PATH when set, otherwise
// from the embedded defaults.
type RewardRules struct {
	Activities map[string]ActivityRule `yaml:"activities"`
	DailyLogin DailyLoginRule          `yaml:"daily_login"`
}

type ActivityRule struct {
	Crystals    int    `yaml:"crystals"`
	Source      string `yaml:"source"`
	Description string `yaml:"description"`
	CounterCol  string `yaml:"counter_column"`
}

type DailyLoginRule struct {
	BaseCrystals   int `yaml:"base_crystals"`
	StreakBonus    int `yaml:"streak_bonus"`
	StreakBonusCap int `yaml:"streak_bonus_cap"`
}

func LoadRewardRules() (RewardRules, error) {
	raw := defaultRulesYAML
	if path := strings.TrimSpace(os.Getenv("GAMIFICATION_RULES_PATH")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return RewardRules{}, fmt.Errorf("read gamification rules: %w", err)
		}
		raw = data
	}
	var rules RewardRules
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return RewardRules{}, fmt.Errorf("parse gamification rules: %w", err)
	}
	if len(rules.Activities) == 0 {
		return RewardRules{}, fmt.Errorf("gamification rules define no activities")
	}
	return rules, nil
}
