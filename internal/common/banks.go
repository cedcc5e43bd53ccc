package common

import (
	"fmt"
	"os"
	"path/filepath"

	"referral-ledger-go/internal/models"

	"gopkg.in/yaml.v2"
)

type BanksConfig struct {
	Banks []models.Bank `yaml:"banks"`
}

func LoadBanks(banksFile string) ([]models.Bank, error) {
	var banksPath string
	if filepath.IsAbs(banksFile) {
		banksPath = banksFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		banksPath = filepath.Join(wd, banksFile)
	}

	data, err := os.ReadFile(banksPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", banksFile, err)
	}

	return ParseBanks(data)
}

func ParseBanks(data []byte) ([]models.Bank, error) {
	var config BanksConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse banks: %w", err)
	}

	if len(config.Banks) == 0 {
		return nil, fmt.Errorf("no banks configured")
	}

	seen := make(map[string]bool, len(config.Banks))
	for i, bank := range config.Banks {
		if bank.Code == "" {
			return nil, fmt.Errorf("bank at index %d missing code", i)
		}
		if bank.Name == "" {
			return nil, fmt.Errorf("bank at index %d missing name", i)
		}
		if seen[bank.Code] {
			return nil, fmt.Errorf("duplicate bank code %q", bank.Code)
		}
		seen[bank.Code] = true
	}

	return config.Banks, nil
}

// FindBank returns the bank with the given code.
func FindBank(banks []models.Bank, code string) (models.Bank, bool) {
	for _, bank := range banks {
		if bank.Code == code {
			return bank, true
		}
	}
	return models.Bank{}, false
}
