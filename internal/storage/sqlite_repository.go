package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/sandeepkv93/dayplan/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

const definitionColumns = `d.id, d.title, d.scheduling_type, d.fixed_time, d.time_window, d.duration_minutes,
	d.min_duration_minutes, d.priority, d.mandatory, d.depends_on, d.start_date, d.active, d.created_at,
	r.frequency, r.interval_value, r.days_of_week, r.day_of_month, r.end_date, r.end_after_occurrences, r.custom_pattern`

const definitionFrom = ` FROM task_definitions d JOIN recurrence_rules r ON r.definition_id = d.id`

const instanceColumns = `id, template_id, date, status, scheduled_time_override, updated_at`

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps PRAGMA foreign_keys in effect for every query.
	db.SetMaxOpenConns(1)
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) CreateDefinition(ctx context.Context, in model.TaskDefinition) error {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = r.now()
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO task_definitions (id, title, scheduling_type, fixed_time, time_window, duration_minutes,
				min_duration_minutes, priority, mandatory, depends_on, start_date, active, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			in.ID, in.Title, string(in.SchedulingType), nullClock(in.FixedTime), string(in.TimeWindow), in.DurationMinutes,
			in.MinDurationMinutes, in.Priority, boolInt(in.IsMandatory), nullString(in.DependsOn), in.StartDate.String(),
			boolInt(in.Active), mustTime(in.CreatedAt),
		)
		if err != nil {
			return wrapConstraint(err, "definition", in.ID)
		}
		rule := in.Recurrence
		_, err = tx.ExecContext(ctx, `
			INSERT INTO recurrence_rules (definition_id, frequency, interval_value, days_of_week, day_of_month,
				end_date, end_after_occurrences, custom_pattern)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			in.ID, string(rule.Frequency), rule.Step(), formatWeekdays(rule.DaysOfWeek), rule.DayOfMonth,
			nullDate(rule.EndDate), rule.EndAfterOccurrences, string(rule.CustomPattern),
		)
		return err
	})
}

func (r *SQLiteRepository) GetDefinition(ctx context.Context, id string) (model.TaskDefinition, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+definitionColumns+definitionFrom+` WHERE d.id = ?`, id)
	def, err := scanDefinition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TaskDefinition{}, ErrNotFound
		}
		return model.TaskDefinition{}, err
	}
	return def, nil
}

func (r *SQLiteRepository) UpdateDefinition(ctx context.Context, in model.TaskDefinition) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE task_definitions
			SET title = ?, scheduling_type = ?, fixed_time = ?, time_window = ?, duration_minutes = ?,
				min_duration_minutes = ?, priority = ?, mandatory = ?, depends_on = ?, start_date = ?, active = ?
			WHERE id = ?`,
			in.Title, string(in.SchedulingType), nullClock(in.FixedTime), string(in.TimeWindow), in.DurationMinutes,
			in.MinDurationMinutes, in.Priority, boolInt(in.IsMandatory), nullString(in.DependsOn), in.StartDate.String(),
			boolInt(in.Active), in.ID,
		)
		if err != nil {
			return err
		}
		if err := checkRowsAffected(res); err != nil {
			return err
		}
		rule := in.Recurrence
		_, err = tx.ExecContext(ctx, `
			UPDATE recurrence_rules
			SET frequency = ?, interval_value = ?, days_of_week = ?, day_of_month = ?, end_date = ?,
				end_after_occurrences = ?, custom_pattern = ?
			WHERE definition_id = ?`,
			string(rule.Frequency), rule.Step(), formatWeekdays(rule.DaysOfWeek), rule.DayOfMonth,
			nullDate(rule.EndDate), rule.EndAfterOccurrences, string(rule.CustomPattern), in.ID,
		)
		return err
	})
}

func (r *SQLiteRepository) DeleteDefinition(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM task_definitions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListDefinitions(ctx context.Context, filter DefinitionListFilter) ([]model.TaskDefinition, error) {
	query := `SELECT ` + definitionColumns + definitionFrom
	args := make([]any, 0, 2)
	if filter.ActiveOnly {
		query += ` WHERE d.active = 1`
	}
	query += ` ORDER BY d.id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TaskDefinition, 0)
	for rows.Next() {
		def, scanErr := scanDefinition(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, def)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateInstance(ctx context.Context, in model.TaskInstance) error {
	if in.UpdatedAt.IsZero() {
		in.UpdatedAt = r.now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO task_instances (`+instanceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID, in.TemplateID, in.Date.String(), string(in.Status), nullClock(in.ScheduledTimeOverride), mustTime(in.UpdatedAt),
	)
	return wrapConstraint(err, "instance", in.ID)
}

func (r *SQLiteRepository) GetInstance(ctx context.Context, id string) (model.TaskInstance, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+instanceColumns+` FROM task_instances WHERE id = ?`, id)
	item, err := scanInstance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TaskInstance{}, ErrNotFound
		}
		return model.TaskInstance{}, err
	}
	return item, nil
}

func (r *SQLiteRepository) UpdateInstance(ctx context.Context, in model.TaskInstance) error {
	if in.UpdatedAt.IsZero() {
		in.UpdatedAt = r.now()
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE task_instances
		SET status = ?, scheduled_time_override = ?, updated_at = ?
		WHERE id = ?`,
		string(in.Status), nullClock(in.ScheduledTimeOverride), mustTime(in.UpdatedAt), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteInstance(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM task_instances WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListInstances(ctx context.Context, filter InstanceListFilter) ([]model.TaskInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM task_instances`
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 5)
	if filter.Date != nil {
		clauses = append(clauses, "date = ?")
		args = append(args, filter.Date.String())
	}
	if filter.TemplateID != "" {
		clauses = append(clauses, "template_id = ?")
		args = append(args, filter.TemplateID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY date ASC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TaskInstance, 0)
	for rows.Next() {
		item, scanErr := scanInstance(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ApplyDayChanges deletes and creates a day's instances in one transaction.
// A create for a template that already has an instance that day is skipped,
// so concurrent regenerations of one day settle on the first writer's rows.
func (r *SQLiteRepository) ApplyDayChanges(ctx context.Context, changes DayChanges) error {
	if len(changes.Create) == 0 && len(changes.Delete) == 0 {
		return nil
	}
	now := mustTime(r.now())
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range changes.Delete {
			if _, err := tx.ExecContext(ctx, `DELETE FROM task_instances WHERE id = ?`, id); err != nil {
				return fmt.Errorf("delete instance %s: %w", id, err)
			}
		}
		for _, in := range changes.Create {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO task_instances (`+instanceColumns+`)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(template_id, date) DO NOTHING`,
				in.ID, in.TemplateID, in.Date.String(), string(in.Status), nullClock(in.ScheduledTimeOverride), now,
			)
			if err != nil {
				return wrapConstraint(err, "instance", in.ID)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) GetSleepSchedule(ctx context.Context, scope SleepScope) (model.SleepSchedule, error) {
	row := r.db.QueryRowContext(ctx, `SELECT wake_time, sleep_time FROM sleep_settings WHERE scope = ?`, scope.key())
	var wake, bed string
	if err := row.Scan(&wake, &bed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SleepSchedule{}, ErrNotFound
		}
		return model.SleepSchedule{}, err
	}
	return parseSleep(wake, bed)
}

func (r *SQLiteRepository) SetSleepSchedule(ctx context.Context, scope SleepScope, in model.SleepSchedule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sleep_settings (scope, wake_time, sleep_time, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET wake_time = excluded.wake_time, sleep_time = excluded.sleep_time, updated_at = excluded.updated_at`,
		scope.key(), in.Wake.String(), in.Sleep.String(), mustTime(r.now()),
	)
	return err
}

func (r *SQLiteRepository) DeleteSleepSchedule(ctx context.Context, scope SleepScope) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sleep_settings WHERE scope = ?`, scope.key())
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func wrapConstraint(err error, kind, id string) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
			return fmt.Errorf("%w: %s %q", ErrDuplicate, kind, id)
		}
	}
	return err
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullClock(v *model.ClockTime) any {
	if v == nil {
		return nil
	}
	return v.String()
}

func nullDate(v *model.Date) any {
	if v == nil || v.IsZero() {
		return nil
	}
	return v.String()
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func parseNullableClock(v sql.NullString) (*model.ClockTime, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	c, err := model.ParseClock(v.String)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func parseNullableDate(v sql.NullString) (*model.Date, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	d, err := model.ParseDate(v.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseSleep(wake, bed string) (model.SleepSchedule, error) {
	w, err := model.ParseClock(wake)
	if err != nil {
		return model.SleepSchedule{}, err
	}
	s, err := model.ParseClock(bed)
	if err != nil {
		return model.SleepSchedule{}, err
	}
	return model.SleepSchedule{Wake: w, Sleep: s}, nil
}

func formatWeekdays(days []time.Weekday) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}

func parseWeekdays(v string) ([]time.Weekday, error) {
	if v == "" {
		return nil, nil
	}
	parts := strings.Split(v, ",")
	out := make([]time.Weekday, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("parse weekday %q: %w", p, err)
		}
		out = append(out, time.Weekday(n))
	}
	return out, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	}
	if offset > 0 {
		if limit <= 0 {
			sql += " LIMIT -1"
		}
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDefinition(s scanner) (model.TaskDefinition, error) {
	var out model.TaskDefinition
	var (
		schedulingType, window, startDate, created string
		frequency, weekdays, pattern               string
		fixed, dependsOn, endDate                  sql.NullString
		mandatory, active                          int
	)
	rule := &out.Recurrence
	if err := s.Scan(
		&out.ID, &out.Title, &schedulingType, &fixed, &window, &out.DurationMinutes,
		&out.MinDurationMinutes, &out.Priority, &mandatory, &dependsOn, &startDate, &active, &created,
		&frequency, &rule.Interval, &weekdays, &rule.DayOfMonth, &endDate, &rule.EndAfterOccurrences, &pattern,
	); err != nil {
		return model.TaskDefinition{}, err
	}

	fixedTime, err := parseNullableClock(fixed)
	if err != nil {
		return model.TaskDefinition{}, err
	}
	start, err := model.ParseDate(startDate)
	if err != nil {
		return model.TaskDefinition{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return model.TaskDefinition{}, err
	}
	days, err := parseWeekdays(weekdays)
	if err != nil {
		return model.TaskDefinition{}, err
	}
	end, err := parseNullableDate(endDate)
	if err != nil {
		return model.TaskDefinition{}, err
	}

	out.SchedulingType = model.SchedulingType(schedulingType)
	out.FixedTime = fixedTime
	out.TimeWindow = model.TimeWindow(window)
	out.IsMandatory = mandatory == 1
	out.DependsOn = dependsOn.String
	out.StartDate = start
	out.Active = active == 1
	out.CreatedAt = createdAt
	rule.Frequency = model.Frequency(frequency)
	rule.DaysOfWeek = days
	rule.EndDate = end
	rule.CustomPattern = model.CustomPattern(pattern)
	return out, nil
}

func scanInstance(s scanner) (model.TaskInstance, error) {
	var out model.TaskInstance
	var date, status, updated string
	var override sql.NullString
	if err := s.Scan(&out.ID, &out.TemplateID, &date, &status, &override, &updated); err != nil {
		return model.TaskInstance{}, err
	}
	d, err := model.ParseDate(date)
	if err != nil {
		return model.TaskInstance{}, err
	}
	o, err := parseNullableClock(override)
	if err != nil {
		return model.TaskInstance{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return model.TaskInstance{}, err
	}
	out.Date = d
	out.Status = model.InstanceStatus(status)
	out.ScheduledTimeOverride = o
	out.UpdatedAt = updatedAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
