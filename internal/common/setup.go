package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"referral-ledger-go/internal/api"
	"referral-ledger-go/internal/database"
	"referral-ledger-go/internal/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService *database.Service
	Ledger    *api.LedgerService
	Banks     []models.Bank
}

func InitializeLogger(cfg models.LogConfig) (*zap.Logger, func()) {
	var logger *zap.Logger
	var err error
	if cfg.Development {
		zapCfg := zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err = zapCfg.Build()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the ledger database, loads the payout banks and
// builds the ledger service on top of them.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Loading payout banks", zap.String("file", cfg.Ledger.BanksFile))
	banks, err := LoadBanks(cfg.Ledger.BanksFile)
	if err != nil {
		dbService.Close()
		return nil, fmt.Errorf("failed to load banks: %w", err)
	}
	zap.L().Info("Loaded payout banks", zap.Int("count", len(banks)))

	return &Services{
		DbService: dbService,
		Ledger:    api.NewLedgerService(dbService, cfg.Ledger),
		Banks:     banks,
	}, nil
}

// InitializeDatabaseOnly initializes the ledger service without loading banks.
// Useful for command-line tools that never render the withdrawal flow.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return &Services{
		DbService: dbService,
		Ledger:    api.NewLedgerService(dbService, cfg.Ledger),
	}, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
