// Package persistence provides SQLite-based world state storage and
// compressed snapshot export.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/hegemon/internal/coalition"
	"github.com/talgya/hegemon/internal/event"
	"github.com/talgya/hegemon/internal/nation"
	"github.com/talgya/hegemon/internal/war"
)

// DB wraps a SQLite connection for world state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS nations (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		relations INTEGER NOT NULL,
		disposition INTEGER NOT NULL,
		territory_lost REAL NOT NULL,
		population INTEGER NOT NULL,
		soldiers INTEGER NOT NULL,
		economy REAL NOT NULL,
		authority REAL NOT NULL,
		influence REAL NOT NULL,
		power INTEGER NOT NULL,
		modifiers INTEGER NOT NULL,
		tariff INTEGER NOT NULL,
		their_tariff INTEGER NOT NULL,
		religion TEXT NOT NULL,
		culture TEXT NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		annexed INTEGER NOT NULL,
		annexed_by TEXT,
		is_player INTEGER NOT NULL,
		bilateral_json TEXT NOT NULL,
		agreements_json TEXT NOT NULL,
		political_json TEXT NOT NULL,
		allies_json TEXT NOT NULL,
		enemies_json TEXT NOT NULL,
		strategy_json TEXT
	);

	CREATE TABLE IF NOT EXISTS wars (
		id TEXT PRIMARY KEY,
		attacker TEXT NOT NULL,
		defender TEXT NOT NULL,
		started_tick INTEGER NOT NULL,
		ended_tick INTEGER NOT NULL,
		attacker_gain REAL NOT NULL,
		defender_gain REAL NOT NULL,
		attacker_casualties INTEGER NOT NULL,
		defender_casualties INTEGER NOT NULL,
		intensity INTEGER NOT NULL,
		status INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS coalitions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type INTEGER NOT NULL,
		leader TEXT NOT NULL,
		founded_tick INTEGER NOT NULL,
		dissolved INTEGER NOT NULL,
		members_json TEXT NOT NULL,
		reqs_json TEXT
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		severity INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		tick INTEGER NOT NULL,
		time TEXT NOT NULL,
		affected_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_wars_status ON wars(status);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveNations writes every nation record (full replace).
func (db *DB) SaveNations(nations []*nation.Nation) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM nations"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO nations
		(code, name, relations, disposition, territory_lost, population,
		 soldiers, economy, authority, influence, power, modifiers, tariff,
		 their_tariff, religion, culture, lat, lon, annexed, annexed_by,
		 is_player, bilateral_json, agreements_json, political_json,
		 allies_json, enemies_json, strategy_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, n := range nations {
		bilateralJSON, _ := json.Marshal(n.Bilateral)
		agreementsJSON, _ := json.Marshal(n.Agreements)
		politicalJSON, _ := json.Marshal(n.Political)
		alliesJSON, _ := json.Marshal(n.Allies)
		enemiesJSON, _ := json.Marshal(n.Enemies)
		var strategyJSON []byte
		if n.Strategy != nil {
			strategyJSON, _ = json.Marshal(n.Strategy)
		}

		annexed, isPlayer := 0, 0
		if n.Annexed {
			annexed = 1
		}
		if n.IsPlayer {
			isPlayer = 1
		}

		_, err := stmt.Exec(
			n.Code, n.Name, n.Relations, n.Disposition, n.TerritoryLost,
			n.Population, n.Soldiers, n.Economy, n.Authority, n.Influence,
			n.Power, uint32(n.Modifiers), n.Tariff, n.TheirTariff,
			n.Religion, n.Culture, n.Centroid.Lat, n.Centroid.Lon,
			annexed, string(n.AnnexedBy), isPlayer,
			string(bilateralJSON), string(agreementsJSON), string(politicalJSON),
			string(alliesJSON), string(enemiesJSON), string(strategyJSON),
		)
		if err != nil {
			return fmt.Errorf("insert nation %s: %w", n.Code, err)
		}
	}

	return tx.Commit()
}

// LoadNations reads every persisted nation record.
func (db *DB) LoadNations() ([]*nation.Nation, error) {
	rows, err := db.conn.Queryx("SELECT * FROM nations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*nation.Nation
	for rows.Next() {
		var r nationRow
		if err := rows.StructScan(&r); err != nil {
			return nil, fmt.Errorf("scan nation: %w", err)
		}
		n, err := r.toNation()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

type nationRow struct {
	Code           string  `db:"code"`
	Name           string  `db:"name"`
	Relations      int     `db:"relations"`
	Disposition    uint8   `db:"disposition"`
	TerritoryLost  float64 `db:"territory_lost"`
	Population     int64   `db:"population"`
	Soldiers       int     `db:"soldiers"`
	Economy        float64 `db:"economy"`
	Authority      float64 `db:"authority"`
	Influence      float64 `db:"influence"`
	Power          int     `db:"power"`
	Modifiers      uint32  `db:"modifiers"`
	Tariff         uint8   `db:"tariff"`
	TheirTariff    uint8   `db:"their_tariff"`
	Religion       string  `db:"religion"`
	Culture        string  `db:"culture"`
	Lat            float64 `db:"lat"`
	Lon            float64 `db:"lon"`
	Annexed        int     `db:"annexed"`
	AnnexedBy      string  `db:"annexed_by"`
	IsPlayer       int     `db:"is_player"`
	BilateralJSON  string  `db:"bilateral_json"`
	AgreementsJSON string  `db:"agreements_json"`
	PoliticalJSON  string  `db:"political_json"`
	AlliesJSON     string  `db:"allies_json"`
	EnemiesJSON    string  `db:"enemies_json"`
	StrategyJSON   *string `db:"strategy_json"`
}

func (r *nationRow) toNation() (*nation.Nation, error) {
	n := &nation.Nation{
		Code:          nation.Code(r.Code),
		Name:          r.Name,
		Relations:     r.Relations,
		Disposition:   nation.Disposition(r.Disposition),
		TerritoryLost: r.TerritoryLost,
		Population:    r.Population,
		Soldiers:      r.Soldiers,
		Economy:       r.Economy,
		Authority:     r.Authority,
		Influence:     r.Influence,
		Power:         r.Power,
		Modifiers:     nation.ModifierSet(r.Modifiers),
		Tariff:        nation.Tariff(r.Tariff),
		TheirTariff:   nation.Tariff(r.TheirTariff),
		Religion:      r.Religion,
		Culture:       r.Culture,
		Annexed:       r.Annexed != 0,
		AnnexedBy:     nation.Code(r.AnnexedBy),
		IsPlayer:      r.IsPlayer != 0,
	}
	n.Centroid.Lat, n.Centroid.Lon = r.Lat, r.Lon

	if err := json.Unmarshal([]byte(r.BilateralJSON), &n.Bilateral); err != nil {
		return nil, fmt.Errorf("nation %s bilateral: %w", r.Code, err)
	}
	if err := json.Unmarshal([]byte(r.AgreementsJSON), &n.Agreements); err != nil {
		return nil, fmt.Errorf("nation %s agreements: %w", r.Code, err)
	}
	if err := json.Unmarshal([]byte(r.PoliticalJSON), &n.Political); err != nil {
		return nil, fmt.Errorf("nation %s political: %w", r.Code, err)
	}
	json.Unmarshal([]byte(r.AlliesJSON), &n.Allies)
	json.Unmarshal([]byte(r.EnemiesJSON), &n.Enemies)
	if r.StrategyJSON != nil && *r.StrategyJSON != "" {
		n.Strategy = &nation.StrategyState{}
		if err := json.Unmarshal([]byte(*r.StrategyJSON), n.Strategy); err != nil {
			return nil, fmt.Errorf("nation %s strategy: %w", r.Code, err)
		}
	}
	return n, nil
}

// SaveWars writes every war record (full replace).
func (db *DB) SaveWars(wars []*war.War) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM wars"); err != nil {
		return err
	}

	for _, w := range wars {
		_, err := tx.Exec(`INSERT INTO wars
			(id, attacker, defender, started_tick, ended_tick, attacker_gain,
			 defender_gain, attacker_casualties, defender_casualties, intensity, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			w.ID, w.Attacker, w.Defender, w.StartedTick, w.EndedTick,
			w.AttackerGain, w.DefenderGain, w.AttackerCasualties,
			w.DefenderCasualties, w.Intensity, w.Status,
		)
		if err != nil {
			return fmt.Errorf("insert war %s: %w", w.ID, err)
		}
	}

	return tx.Commit()
}

// LoadWars reads every persisted war record.
func (db *DB) LoadWars() ([]*war.War, error) {
	rows, err := db.conn.Queryx(`SELECT id, attacker, defender, started_tick,
		ended_tick, attacker_gain, defender_gain, attacker_casualties,
		defender_casualties, intensity, status FROM wars`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*war.War
	for rows.Next() {
		w := &war.War{}
		if err := rows.Scan(&w.ID, &w.Attacker, &w.Defender, &w.StartedTick,
			&w.EndedTick, &w.AttackerGain, &w.DefenderGain,
			&w.AttackerCasualties, &w.DefenderCasualties, &w.Intensity, &w.Status); err != nil {
			return nil, fmt.Errorf("scan war: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// SaveCoalitions writes every coalition record (full replace).
func (db *DB) SaveCoalitions(coalitions []*coalition.Coalition) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM coalitions"); err != nil {
		return err
	}

	for _, c := range coalitions {
		membersJSON, _ := json.Marshal(c.Members)
		var reqsJSON []byte
		if c.Reqs != nil {
			reqsJSON, _ = json.Marshal(c.Reqs)
		}
		dissolved := 0
		if c.Dissolved {
			dissolved = 1
		}
		_, err := tx.Exec(`INSERT INTO coalitions
			(id, name, type, leader, founded_tick, dissolved, members_json, reqs_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Type, c.Leader, c.FoundedTick, dissolved,
			string(membersJSON), string(reqsJSON),
		)
		if err != nil {
			return fmt.Errorf("insert coalition %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// LoadCoalitions reads every persisted coalition record.
func (db *DB) LoadCoalitions() ([]*coalition.Coalition, error) {
	rows, err := db.conn.Queryx("SELECT id, name, type, leader, founded_tick, dissolved, members_json, reqs_json FROM coalitions")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*coalition.Coalition
	for rows.Next() {
		c := &coalition.Coalition{}
		var dissolved int
		var membersJSON string
		var reqsJSON *string
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Leader, &c.FoundedTick,
			&dissolved, &membersJSON, &reqsJSON); err != nil {
			return nil, fmt.Errorf("scan coalition: %w", err)
		}
		c.Dissolved = dissolved != 0
		if err := json.Unmarshal([]byte(membersJSON), &c.Members); err != nil {
			return nil, fmt.Errorf("coalition %s members: %w", c.ID, err)
		}
		if reqsJSON != nil && *reqsJSON != "" {
			c.Reqs = &coalition.Requirements{}
			if err := json.Unmarshal([]byte(*reqsJSON), c.Reqs); err != nil {
				return nil, fmt.Errorf("coalition %s requirements: %w", c.ID, err)
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []event.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		affectedJSON, _ := json.Marshal(e.Affected)
		_, err := tx.Exec(
			`INSERT OR IGNORE INTO events (id, type, severity, title, description, tick, time, affected_json)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Type, e.Severity, e.Title, e.Description, e.Tick,
			e.Time.Format("2006-01-02T15:04:05.000Z07:00"), string(affectedJSON),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// HasWorldState reports whether a previous run left nations to restore.
func (db *DB) HasWorldState() bool {
	var count int
	if err := db.conn.Get(&count, "SELECT COUNT(*) FROM nations"); err != nil {
		return false
	}
	return count > 0
}

// SaveWorldState performs a full save of registry, wars, coalitions, and
// recent events.
func (db *DB) SaveWorldState(nations []*nation.Nation, wars []*war.War,
	coalitions []*coalition.Coalition, events []event.Event, tick uint64) error {

	slog.Info("saving world state", "nations", len(nations), "wars", len(wars), "coalitions", len(coalitions))

	if err := db.SaveNations(nations); err != nil {
		return fmt.Errorf("save nations: %w", err)
	}
	if err := db.SaveWars(wars); err != nil {
		return fmt.Errorf("save wars: %w", err)
	}
	if err := db.SaveCoalitions(coalitions); err != nil {
		return fmt.Errorf("save coalitions: %w", err)
	}
	if err := db.SaveEvents(events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveMeta("last_tick", fmt.Sprintf("%d", tick)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("world state saved", "tick", tick)
	return nil
}
