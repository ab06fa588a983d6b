package schedulestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/embervolt/bess/energy"

	_ "github.com/lib/pq"
)

// PersistedPeriod is the slice of a period's decision persisted to the
// database so a restart can recover the day's planned intents without
// needing the full Energy Record (spec §4.6, "survives restarts").
type PersistedPeriod struct {
	Period          int
	StrategicIntent energy.Intent
	BatteryAction   float64
}

// SavePeriods persists one day's planned periods, replacing any existing
// rows for that date. Modeled on the teacher's transactional
// delete-then-upsert pattern for MPC decisions.
func SavePeriods(ctx context.Context, db *sql.DB, date time.Time, periods []PersistedPeriod) error {
	if db == nil {
		return fmt.Errorf("schedulestore: database connection not available")
	}
	if len(periods) == 0 {
		return nil
	}

	day := date.Format("2006-01-02")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("schedulestore: begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_periods WHERE day = $1`, day); err != nil {
		return fmt.Errorf("schedulestore: delete existing periods: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO schedule_periods (day, period, strategic_intent, battery_action)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (day, period) DO UPDATE SET
			strategic_intent = EXCLUDED.strategic_intent,
			battery_action = EXCLUDED.battery_action
	`)
	if err != nil {
		return fmt.Errorf("schedulestore: prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range periods {
		if _, err := stmt.ExecContext(ctx, day, p.Period, p.StrategicIntent.String(), p.BatteryAction); err != nil {
			return fmt.Errorf("schedulestore: insert period %d: %w", p.Period, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("schedulestore: commit transaction: %w", err)
	}
	return nil
}

// LoadPeriods reconstructs one day's persisted periods, keyed by period
// index.
func LoadPeriods(ctx context.Context, db *sql.DB, date time.Time) (map[int]PersistedPeriod, error) {
	if db == nil {
		return nil, fmt.Errorf("schedulestore: database connection not available")
	}

	day := date.Format("2006-01-02")

	rows, err := db.QueryContext(ctx, `
		SELECT period, strategic_intent, battery_action
		FROM schedule_periods
		WHERE day = $1
		ORDER BY period ASC
	`, day)
	if err != nil {
		return nil, fmt.Errorf("schedulestore: query periods: %w", err)
	}
	defer rows.Close()

	out := make(map[int]PersistedPeriod)
	for rows.Next() {
		var p PersistedPeriod
		var intentName string
		if err := rows.Scan(&p.Period, &intentName, &p.BatteryAction); err != nil {
			return nil, fmt.Errorf("schedulestore: scan period: %w", err)
		}
		p.StrategicIntent = parseIntent(intentName)
		out[p.Period] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schedulestore: iterate periods: %w", err)
	}
	return out, nil
}

func parseIntent(name string) energy.Intent {
	switch name {
	case "GRID_CHARGING":
		return energy.IntentGridCharging
	case "SOLAR_STORAGE":
		return energy.IntentSolarStorage
	case "LOAD_SUPPORT":
		return energy.IntentLoadSupport
	case "EXPORT_ARBITRAGE":
		return energy.IntentExportArbitrage
	default:
		return energy.IntentIdle
	}
}
