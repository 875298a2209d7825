package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/room"
)

var roomOrderCols = map[string]string{
	"block":      "block",
	"number":     "number",
	"floor":      "floor",
	"capacity":   "capacity",
	"occupied":   "occupied",
	"created_at": "created_at",
}

type roomRepository struct {
	db *sqlx.DB
}

var _ room.Repository = (*roomRepository)(nil) // interface compliance check

func NewRoomRepository(db *sqlx.DB) room.Repository {
	return &roomRepository{db: db}
}

type roomRow struct {
	ID        string    `db:"id"`
	Block     string    `db:"block"`
	Number    string    `db:"number"`
	Floor     int       `db:"floor"`
	Capacity  int       `db:"capacity"`
	Occupied  int       `db:"occupied"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r roomRow) toRoom() room.Room {
	return room.Room(r)
}

func (repo *roomRepository) CheckRoomUniqueness(ctx context.Context, block, number string, excludedRooms ...room.Room) error {
	q := `SELECT COUNT(*) FROM room WHERE block = $1 AND number = $2`
	args := []interface{}{block, number}
	if len(excludedRooms) > 0 {
		ids := make([]string, 0, len(excludedRooms))
		for _, rm := range excludedRooms {
			ids = append(ids, rm.ID)
		}
		inQ, inArgs, err := sqlx.In(`SELECT COUNT(*) FROM room WHERE block = ? AND number = ? AND id NOT IN (?)`, block, number, ids)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		q, args = repo.db.Rebind(inQ), inArgs
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return errors.Wrap(err, "checking room uniqueness")
	}
	if count > 0 {
		return room.ErrRoomExists
	}
	return nil
}

func (repo *roomRepository) CreateRoom(ctx context.Context, rm room.Room) (room.Room, error) {
	rm.ID = uuid.NewString()
	q := `
INSERT INTO room (id, block, number, floor, capacity, occupied, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := repo.db.ExecContext(ctx, q,
		rm.ID, rm.Block, rm.Number, rm.Floor, rm.Capacity, rm.Occupied, rm.CreatedAt, rm.UpdatedAt,
	); err != nil {
		return room.Room{}, errors.Wrap(err, "inserting room")
	}
	return rm, nil
}

func (repo *roomRepository) GetRoomByID(ctx context.Context, id string) (room.Room, error) {
	var row roomRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM room WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return room.Room{}, room.ErrNotFound
		}
		return room.Room{}, errors.Wrap(err, "getting room")
	}
	return row.toRoom(), nil
}

func (repo *roomRepository) QueryRooms(ctx context.Context, filter *room.QueryFilter, ordering []core.DBOrdering) ([]room.Room, error) {
	q := `SELECT * FROM room WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + itoa(len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			q += ` AND number ILIKE ` + arg("%"+filter.Search+"%")
		}
		if filter.Block != "" {
			q += ` AND block = ` + arg(filter.Block)
		}
		if filter.Floor != nil {
			q += ` AND floor = ` + arg(*filter.Floor)
		}
		if filter.HasSpace != nil {
			if *filter.HasSpace {
				q += ` AND occupied < capacity`
			} else {
				q += ` AND occupied >= capacity`
			}
		}
	}
	q += orderBy(ordering, roomOrderCols, "block, number")

	var rows []roomRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying rooms")
	}
	rooms := make([]room.Room, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, row.toRoom())
	}
	return rooms, nil
}

// IncrementOccupied relies on a conditional UPDATE so two racing writers can
// never push the counter outside [0, capacity].
func (repo *roomRepository) IncrementOccupied(ctx context.Context, id string, delta int) (room.Room, error) {
	q := `
UPDATE room
SET occupied = occupied + $2, updated_at = $3
WHERE id = $1 AND occupied + $2 BETWEEN 0 AND capacity
RETURNING *`
	var row roomRow
	if err := repo.db.GetContext(ctx, &row, q, id, delta, time.Now().UTC()); err != nil {
		if isNoRows(err) {
			return repo.occupancyFailure(ctx, id, delta)
		}
		return room.Room{}, errors.Wrap(err, "incrementing occupancy")
	}
	return row.toRoom(), nil
}

func (repo *roomRepository) SetOccupied(ctx context.Context, id string, value int) (room.Room, error) {
	q := `
UPDATE room
SET occupied = $2, updated_at = $3
WHERE id = $1 AND $2 BETWEEN 0 AND capacity
RETURNING *`
	var row roomRow
	if err := repo.db.GetContext(ctx, &row, q, id, value, time.Now().UTC()); err != nil {
		if isNoRows(err) {
			if _, gerr := repo.GetRoomByID(ctx, id); gerr != nil {
				return room.Room{}, gerr
			}
			return room.Room{}, room.ErrInvalidOccupancy
		}
		return room.Room{}, errors.Wrap(err, "setting occupancy")
	}
	return row.toRoom(), nil
}

// occupancyFailure disambiguates a conditional update that matched no row:
// the room may be missing, full, or the result would go negative.
func (repo *roomRepository) occupancyFailure(ctx context.Context, id string, delta int) (room.Room, error) {
	if _, err := repo.GetRoomByID(ctx, id); err != nil {
		return room.Room{}, err
	}
	if delta > 0 {
		return room.Room{}, room.ErrRoomFull
	}
	return room.Room{}, room.ErrInvalidOccupancy
}

func (repo *roomRepository) DeleteRoom(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM room WHERE id = $1 AND occupied = 0`, id)
	if err != nil {
		return errors.Wrap(err, "deleting room")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err = repo.GetRoomByID(ctx, id); err != nil {
			return err
		}
		return room.ErrRoomOccupied
	}
	return nil
}

func (repo *roomRepository) ReconcileOccupied(ctx context.Context) ([]room.Room, error) {
	q := `
UPDATE room r
SET occupied = actual.cnt, updated_at = $1
FROM (
    SELECT r2.id, COUNT(s.id) AS cnt
    FROM room r2
    LEFT JOIN student s ON s.room_id = r2.id AND s.status = 'active'
    GROUP BY r2.id
) actual
WHERE actual.id = r.id AND r.occupied <> actual.cnt
RETURNING r.*`
	var rows []roomRow
	if err := repo.db.SelectContext(ctx, &rows, q, time.Now().UTC()); err != nil {
		return nil, errors.Wrap(err, "reconciling occupancy")
	}
	drifted := make([]room.Room, 0, len(rows))
	for _, row := range rows {
		drifted = append(drifted, row.toRoom())
	}
	return drifted, nil
}
