package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/pable/casinolog/internal/model"
)

// RunInfo describes one saved analysis run.
type RunInfo struct {
	ID        int64
	CreatedAt time.Time
	Label     string
	FirstDay  string // YYYY-MM-DD of the earliest log file
	LastDay   string
	Files     int
	Events    int
	Sessions  int
}

// SaveRun stores a run's event table, stats tree, streak runs and session
// index in one transaction and returns the new run id.
func (db *DB) SaveRun(info RunInfo, events []model.Event, stats *model.Stats) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now()
	}
	res, err := tx.Exec(`
		INSERT INTO runs(created_at, label, first_day, last_day, files, events, sessions)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		info.CreatedAt.UTC().Format(time.RFC3339), info.Label, info.FirstDay, info.LastDay,
		info.Files, len(events), info.Sessions,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := insertEvents(tx, runID, events); err != nil {
		return 0, err
	}
	if err := insertStats(tx, runID, stats); err != nil {
		return 0, err
	}
	if err := insertStreaks(tx, runID, stats); err != nil {
		return 0, err
	}
	if err := insertIndex(tx, runID, stats.Index); err != nil {
		return 0, err
	}
	return runID, tx.Commit()
}

func insertEvents(tx *sql.Tx, runID int64, events []model.Event) error {
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO events(run_id, id, time, category, direction, amount, name, role, price, chat)
		VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		_, err = stmt.Exec(runID, e.ID, e.Time.Format(time.RFC3339), string(e.Category), string(e.Direction),
			e.Amount, e.Name, e.Role, e.Price, e.Chat)
		if err != nil {
			return fmt.Errorf("insert event %d: %w", e.ID, err)
		}
	}
	return nil
}

// nodePath splits a Walk path into the group and item columns.
func nodePath(path []string) (group, item string) {
	if len(path) > 0 {
		group = path[0]
	}
	if len(path) > 1 {
		item = path[1]
	}
	return group, item
}

func insertStats(tx *sql.Tx, runID int64, stats *model.Stats) error {
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO stats(
			run_id, category, group_name, item_name,
			pay_amount, gain_amount, total, pay_count, gain_count, lose_count,
			unit_price, payout, duration_ms, probability
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	hist, err := tx.Prepare(`
		INSERT OR REPLACE INTO histograms(run_id, category, group_name, item_name, kind, bucket, count)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer hist.Close()

	for _, c := range model.Categories {
		var werr error
		stats.Root(c).Walk(func(path []string, n *model.Node) {
			if werr != nil {
				return
			}
			group, item := nodePath(path)
			_, werr = stmt.Exec(runID, string(c), group, item,
				n.PayAmount, n.GainAmount, n.Total, n.PayCount, n.GainCount, n.LoseCount,
				n.UnitPrice, n.Payout, n.Duration.Milliseconds(), n.Probability)
			if werr != nil {
				werr = fmt.Errorf("insert stats %s/%s/%s: %w", c, group, item, werr)
				return
			}
			for role, count := range n.Roles {
				if _, werr = hist.Exec(runID, string(c), group, item, "role", role, count); werr != nil {
					return
				}
			}
			for source, count := range n.Sources {
				if _, werr = hist.Exec(runID, string(c), group, item, "source", source, count); werr != nil {
					return
				}
			}
			for amount, count := range n.Outcomes {
				if _, werr = hist.Exec(runID, string(c), group, item, "outcome", strconv.Itoa(amount), count); werr != nil {
					return
				}
			}
			for tier, count := range n.Messages {
				if _, werr = hist.Exec(runID, string(c), group, item, "message", strconv.Itoa(tier), count); werr != nil {
					return
				}
			}
		})
		if werr != nil {
			return werr
		}
	}
	return nil
}

func insertStreaks(tx *sql.Tx, runID int64, stats *model.Stats) error {
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO streaks(run_id, item, kind, seq, count, start_id, end_id)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for kind, byItem := range map[string]map[string][]model.StreakRun{"lose": stats.LoseStreaks, "win": stats.WinStreaks} {
		for item, runs := range byItem {
			for seq, r := range runs {
				if _, err := stmt.Exec(runID, item, kind, seq, r.Count, r.StartID, r.EndID); err != nil {
					return fmt.Errorf("insert %s streak for %s: %w", kind, item, err)
				}
			}
		}
	}
	return nil
}

func insertIndex(tx *sql.Tx, runID int64, index model.SessionIndex) error {
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO session_index(run_id, category, group_name, session, seq, event_id)
		VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, k := range index.Keys() {
		for seq, id := range index[k] {
			if _, err := stmt.Exec(runID, string(k.Category), k.Group, k.Session, seq, id); err != nil {
				return fmt.Errorf("insert session index: %w", err)
			}
		}
	}
	return nil
}

const runColumns = `id, created_at, label, first_day, last_day, files, events, sessions`

func scanRun(scan func(...any) error) (RunInfo, error) {
	var r RunInfo
	var created string
	if err := scan(&r.ID, &created, &r.Label, &r.FirstDay, &r.LastDay, &r.Files, &r.Events, &r.Sessions); err != nil {
		return r, err
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return r, nil
}

// ListRuns returns all saved runs, newest first.
func (db *DB) ListRuns() ([]RunInfo, error) {
	rows, err := db.conn.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		r, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns the run with the given id, or nil when there is none.
// An id of 0 selects the most recent run.
func (db *DB) GetRun(id int64) (*RunInfo, error) {
	var row *sql.Row
	if id == 0 {
		row = db.conn.QueryRow(`SELECT ` + runColumns + ` FROM runs ORDER BY id DESC LIMIT 1`)
	} else {
		row = db.conn.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	}
	r, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteRun removes a run and everything stored under it.
func (db *DB) DeleteRun(id int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"session_index", "streaks", "histograms", "stats", "events"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE run_id = ?`, id); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	res, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %d not found", id)
	}
	return tx.Commit()
}

// GetEvents returns events of a run. With no ids it returns the whole table
// in id order; otherwise the listed events in the order given.
func (db *DB) GetEvents(runID int64, ids ...int) ([]model.Event, error) {
	if len(ids) == 0 {
		rows, err := db.conn.Query(`
			SELECT id, time, category, direction, amount, name, role, price, chat
			FROM events WHERE run_id = ? ORDER BY id`, runID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var out []model.Event
		for rows.Next() {
			e, err := scanEvent(rows.Scan)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return out, rows.Err()
	}

	out := make([]model.Event, 0, len(ids))
	for _, id := range ids {
		row := db.conn.QueryRow(`
			SELECT id, time, category, direction, amount, name, role, price, chat
			FROM events WHERE run_id = ? AND id = ?`, runID, id)
		e, err := scanEvent(row.Scan)
		if err != nil {
			return nil, fmt.Errorf("load event %d: %w", id, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func scanEvent(scan func(...any) error) (model.Event, error) {
	var e model.Event
	var at, category, direction string
	if err := scan(&e.ID, &at, &category, &direction, &e.Amount, &e.Name, &e.Role, &e.Price, &e.Chat); err != nil {
		return e, err
	}
	e.Time, _ = time.Parse(time.RFC3339, at)
	e.Category = model.Category(category)
	e.Direction = model.Direction(direction)
	return e, nil
}

// GetStats rebuilds the stats tree, streak runs and session index of a run.
func (db *DB) GetStats(runID int64) (*model.Stats, error) {
	stats := &model.Stats{
		Bar:         model.NewNode(string(model.CategoryBar)),
		Slot:        model.NewNode(string(model.CategorySlot)),
		Changer:     model.NewNode(string(model.CategoryChanger)),
		PtoP:        model.NewNode(string(model.CategoryPtoP)),
		LoseStreaks: make(map[string][]model.StreakRun),
		WinStreaks:  make(map[string][]model.StreakRun),
		Index:       model.SessionIndex{},
	}

	node := func(category, group, item string) *model.Node {
		n := stats.Root(model.Category(category))
		if n == nil {
			return nil
		}
		if group != "" {
			n = n.Child(group)
		}
		if item != "" {
			n = n.Child(item)
		}
		return n
	}

	rows, err := db.conn.Query(`
		SELECT category, group_name, item_name, pay_amount, gain_amount, total,
			pay_count, gain_count, lose_count, unit_price, payout, duration_ms, probability
		FROM stats WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var category, group, item string
		var durMs int64
		var v model.Node
		if err := rows.Scan(&category, &group, &item, &v.PayAmount, &v.GainAmount, &v.Total,
			&v.PayCount, &v.GainCount, &v.LoseCount, &v.UnitPrice, &v.Payout, &durMs, &v.Probability); err != nil {
			rows.Close()
			return nil, err
		}
		n := node(category, group, item)
		if n == nil {
			continue
		}
		v.Name, v.Children = n.Name, n.Children
		v.Duration = time.Duration(durMs) * time.Millisecond
		*n = v
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := db.loadHistograms(runID, node); err != nil {
		return nil, err
	}
	if err := db.loadStreaks(runID, stats); err != nil {
		return nil, err
	}
	if err := db.loadIndex(runID, stats.Index); err != nil {
		return nil, err
	}
	return stats, nil
}

func (db *DB) loadHistograms(runID int64, node func(c, g, i string) *model.Node) error {
	rows, err := db.conn.Query(`
		SELECT category, group_name, item_name, kind, bucket, count
		FROM histograms WHERE run_id = ?`, runID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var category, group, item, kind, bucket string
		var count int
		if err := rows.Scan(&category, &group, &item, &kind, &bucket, &count); err != nil {
			return err
		}
		n := node(category, group, item)
		if n == nil {
			continue
		}
		switch kind {
		case "role":
			if n.Roles == nil {
				n.Roles = make(map[string]int)
			}
			n.Roles[bucket] = count
		case "source":
			if n.Sources == nil {
				n.Sources = make(map[string]int)
			}
			n.Sources[bucket] = count
		case "outcome", "message":
			amount, err := strconv.Atoi(bucket)
			if err != nil {
				continue
			}
			m := &n.Outcomes
			if kind == "message" {
				m = &n.Messages
			}
			if *m == nil {
				*m = make(map[int]int)
			}
			(*m)[amount] = count
		}
	}
	return rows.Err()
}

func (db *DB) loadStreaks(runID int64, stats *model.Stats) error {
	rows, err := db.conn.Query(`
		SELECT item, kind, count, start_id, end_id
		FROM streaks WHERE run_id = ? ORDER BY item, kind, seq`, runID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item, kind string
		var r model.StreakRun
		if err := rows.Scan(&item, &kind, &r.Count, &r.StartID, &r.EndID); err != nil {
			return err
		}
		if kind == "win" {
			stats.WinStreaks[item] = append(stats.WinStreaks[item], r)
		} else {
			stats.LoseStreaks[item] = append(stats.LoseStreaks[item], r)
		}
	}
	return rows.Err()
}

func (db *DB) loadIndex(runID int64, index model.SessionIndex) error {
	rows, err := db.conn.Query(`
		SELECT category, group_name, session, event_id
		FROM session_index WHERE run_id = ? ORDER BY category, group_name, session, seq`, runID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var category, group string
		var session, id int
		if err := rows.Scan(&category, &group, &session, &id); err != nil {
			return err
		}
		key := model.IndexKey{Category: model.Category(category), Group: group, Session: session}
		index[key] = append(index[key], id)
	}
	return rows.Err()
}
