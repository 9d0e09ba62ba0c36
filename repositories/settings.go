// Package repositories persists the client's local state in BadgerDB.
// Only the settings record lives here; message logs are deliberately
// in-memory and rebuilt from the service's history queries.
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"chat-sync/domain"
	cerrors "chat-sync/errors"
)

const settingsKey = "settings:current"

type SettingsRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewSettingsRepository(db *badger.DB, log *slog.Logger) SettingsRepository {
	return SettingsRepository{db: db, log: log}
}

type settingsRecord struct {
	DisplayName string `json:"displayName"`
	Endpoint    string `json:"endpoint"`
	DemoMode    bool   `json:"demoMode"`
}

// Load reads the single settings record. ErrSettingsNotFound means no
// record was ever saved; the caller falls back to its defaults.
func (r SettingsRepository) Load() (domain.Settings, error) {
	var record settingsRecord
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(settingsKey))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &record)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Settings{}, cerrors.ErrSettingsNotFound
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("settings load failed: %w", err)
	}
	return domain.Settings{
		DisplayName: record.DisplayName,
		Endpoint:    record.Endpoint,
		DemoMode:    record.DemoMode,
	}, nil
}

// Save writes the settings record on explicit user action.
func (r SettingsRepository) Save(s domain.Settings) error {
	bytes, err := json.Marshal(settingsRecord{
		DisplayName: s.DisplayName,
		Endpoint:    s.Endpoint,
		DemoMode:    s.DemoMode,
	})
	if err != nil {
		return err
	}
	r.log.Debug("Saving settings record", "displayName", s.DisplayName)
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(settingsKey), bytes)
	})
}
