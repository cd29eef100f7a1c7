package state

import (
	"context"
	"database/sql"
	"errors"
	"time"

	dbutil "github.com/llehouerou/wavecast/internal/db"
)

// ErrEmptyTrackID is returned when a favorite is written without a track id.
var ErrEmptyTrackID = errors.New("empty track id")

// Favorites returns the favorite track ids, oldest first.
func (m *Manager) Favorites() ([]string, error) {
	return getFavorites(m.db)
}

// SetFavorite adds or removes a single favorite.
func (m *Manager) SetFavorite(id string, favorite bool) error {
	return setFavorites(m.db, []string{id}, favorite, time.Now())
}

// SetFavorites adds or removes several favorites in one transaction.
func (m *Manager) SetFavorites(ids []string, favorite bool) error {
	return setFavorites(m.db, ids, favorite, time.Now())
}

func getFavorites(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`SELECT track_id FROM favorites ORDER BY added_at, track_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func setFavorites(db *sql.DB, ids []string, favorite bool, now time.Time) error {
	for _, id := range ids {
		if id == "" {
			return ErrEmptyTrackID
		}
	}

	return dbutil.WithTx(context.Background(), db, func(tx *sql.Tx) error {
		for _, id := range ids {
			var err error
			if favorite {
				// keep the original added_at when already a favorite
				_, err = tx.Exec(`
					INSERT INTO favorites (track_id, added_at) VALUES (?, ?)
					ON CONFLICT(track_id) DO NOTHING
				`, id, now.UnixNano())
			} else {
				_, err = tx.Exec(`DELETE FROM favorites WHERE track_id = ?`, id)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}
