package tracking

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/studypact-backend/internal/pkg/dbctx"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
	"github.com/yungbote/studypact-backend/internal/types"
)

type CheckinRepo interface {
	Upsert(dbc dbctx.Context, row *types.CheckinRecord) error
	GetByUserDate(dbc dbctx.Context, userID uuid.UUID, date time.Time) (*types.CheckinRecord, error)
	ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.CheckinRecord, error)
}

type checkinRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCheckinRepo(db *gorm.DB, baseLog *logger.Logger) CheckinRepo {
	return &checkinRepo{db: db, log: baseLog.With("repo", "CheckinRepo")}
}

func (r *checkinRepo) dbx(dbc dbctx.Context) *gorm.DB {
	return dbc.Handle(r.db)
}

// IsUniqueViolation reports whether err is a postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Upsert writes the day's check-in, overwriting any earlier submission
// for the same (user, date).
func (r *checkinRepo) Upsert(dbc dbctx.Context, row *types.CheckinRecord) error {
	if row == nil || row.UserID == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	row.UpdatedAt = now
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	return r.dbx(dbc).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "date"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"yesterday", "today", "blockers", "decision_json", "updated_at",
			}),
		}).
		Create(row).Error
}

func (r *checkinRepo) GetByUserDate(dbc dbctx.Context, userID uuid.UUID, date time.Time) (*types.CheckinRecord, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.CheckinRecord
	err := r.dbx(dbc).
		Where("user_id = ? AND date = ?", userID, date.Format("2006-01-02")).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *checkinRepo) ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.CheckinRecord, error) {
	out := []*types.CheckinRecord{}
	if userID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 7
	}
	if err := r.dbx(dbc).
		Where("user_id = ?", userID).
		Order("date DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
