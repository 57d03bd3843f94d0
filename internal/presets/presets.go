// Package presets persists overrides for the engine's live parameters.
package presets

import (
	"fmt"
	"log"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/particles/internal/engine"
	"github.com/playmatatu/particles/internal/models"
)

// GetAll returns all presets ordered by key.
func GetAll(db *sqlx.DB) ([]models.Preset, error) {
	var presets []models.Preset
	err := db.Select(&presets, `
		SELECT key, value, value_type, description, updated_by, updated_at
		FROM presets
		ORDER BY key
	`)
	return presets, err
}

// Get returns a single preset.
func Get(db *sqlx.DB, key string) (*models.Preset, error) {
	var p models.Preset
	err := db.Get(&p, `SELECT key, value, value_type, description, updated_by, updated_at FROM presets WHERE key=$1`, key)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks value against a preset's declared type.
func Validate(valueType, value string) error {
	switch valueType {
	case "int":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("invalid integer value: %s", value)
		}
	case "float":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("invalid float value: %s", value)
		}
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid boolean value: %s (must be 'true' or 'false')", value)
		}
	}
	return nil
}

// Update stores a new value for an existing preset.
func Update(db *sqlx.DB, key, value, operator string) error {
	existing, err := Get(db, key)
	if err != nil {
		return fmt.Errorf("preset not found: %s", key)
	}
	if err := Validate(existing.ValueType, value); err != nil {
		return err
	}

	_, err = db.Exec(`
		UPDATE presets SET value=$1, updated_by=$2, updated_at=NOW() WHERE key=$3
	`, value, operator, key)
	return err
}

// Apply loads every preset and applies the recognised ones to c.
func Apply(db *sqlx.DB, c *engine.Controls) error {
	all, err := GetAll(db)
	if err != nil {
		return err
	}

	applied := 0
	for _, p := range all {
		if err := ApplyValue(c, p.Key, p.Value); err != nil {
			log.Printf("[PRESET] skipping %s=%q: %v", p.Key, p.Value, err)
			continue
		}
		applied++
	}

	log.Printf("[PRESET] Applied %d of %d presets to engine controls", applied, len(all))
	return nil
}

// ApplyValue sets the live parameter named by key.
func ApplyValue(c *engine.Controls, key, value string) error {
	switch key {
	case "force_mode":
		m, err := engine.ParseForceMode(value)
		if err != nil {
			return err
		}
		c.SetForceMode(m)
		return nil
	case "static_friction":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		c.SetStaticFriction(b)
		return nil
	}

	set, ok := floatSetters[key]
	if !ok {
		return fmt.Errorf("unknown preset key %q", key)
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid float value: %s", value)
	}
	if key == "dt" && v <= 0 {
		return fmt.Errorf("dt must be positive, got %v", v)
	}
	set(c, v)
	return nil
}

var floatSetters = map[string]func(*engine.Controls, float64){
	"dt":                  (*engine.Controls).SetDT,
	"gravity":             (*engine.Controls).SetGravity,
	"translation_force":   (*engine.Controls).SetTranslationForce,
	"rotation_force":      (*engine.Controls).SetRotationForce,
	"force_range":         (*engine.Controls).SetForceRange,
	"damping":             (*engine.Controls).SetDamping,
	"fluid_friction":      (*engine.Controls).SetFluidFriction,
	"point_gravity_scale": (*engine.Controls).SetPointGravityScale,
}
