package evaluation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/plant-eval/internal/db"
	syncx "github.com/mind-engage/plant-eval/internal/sync"
)

const bcryptCost = 12

type SQLStore struct {
	db     *sql.DB
	driver db.Driver
	events *syncx.EventRepo
	now    func() time.Time
}

func NewSQLStore(conn *sql.DB, driver db.Driver, events *syncx.EventRepo) *SQLStore {
	if events == nil {
		events = syncx.NewEventRepo(conn, driver, "")
	}
	return &SQLStore{db: conn, driver: driver, events: events, now: time.Now}
}

func (s *SQLStore) q(query string) string { return db.Rebind(s.driver, query) }

func (s *SQLStore) Authenticate(ctx context.Context, username, password string) (User, error) {
	var u User
	var hash string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT id, username, nombre_completo, rol, password_hash FROM usuarios WHERE username=$1`),
		strings.TrimSpace(username)).Scan(&u.ID, &u.Username, &u.FullName, &u.Role, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrAuth
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrAuth
	}
	return u, nil
}

func (s *SQLStore) CreateCompany(ctx context.Context, id, name string) error {
	if id == "" {
		id = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO empresas (id, nombre) VALUES ($1,$2)`), id, name)
	return err
}

func (s *SQLStore) CreateUser(ctx context.Context, nu NewUser) (User, error) {
	if nu.Username == "" || nu.Password == "" {
		return User{}, errors.New("username and password required")
	}
	if nu.ID == "" {
		nu.ID = uuid.NewString()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcryptCost)
	if err != nil {
		return User{}, err
	}
	var company any
	if nu.CompanyID != "" {
		company = nu.CompanyID
	}
	_, err = s.db.ExecContext(ctx, s.q(`INSERT INTO usuarios (id, username, password_hash, nombre_completo, rol, empresa_id)
		VALUES ($1,$2,$3,$4,$5,$6)`),
		nu.ID, nu.Username, string(hash), nu.FullName, nu.Role, company)
	if err != nil {
		return User{}, err
	}
	return User{ID: nu.ID, Username: nu.Username, FullName: nu.FullName, Role: nu.Role}, nil
}

// UserRole returns the current role for userID, or ErrNotFound.
func (s *SQLStore) UserRole(ctx context.Context, userID string) (string, error) {
	var role string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT rol FROM usuarios WHERE id=$1`), userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return role, err
}

func (s *SQLStore) BlockStatus(ctx context.Context, userID string) (BlockStatus, error) {
	var reason, byName sql.NullString
	var at int64
	err := s.db.QueryRowContext(ctx, s.q(`SELECT b.motivo, u.nombre_completo, b.fecha_bloqueo
		FROM bloqueos b LEFT JOIN usuarios u ON u.id = b.bloqueado_por
		WHERE b.user_id=$1`), userID).Scan(&reason, &byName, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return BlockStatus{CanTakeExams: true}, nil
	}
	if err != nil {
		return BlockStatus{}, err
	}
	bs := BlockStatus{CanTakeExams: false}
	if reason.Valid {
		bs.Reason = &reason.String
	}
	if byName.Valid {
		bs.BlockedBy = &byName.String
	}
	ts := time.Unix(at, 0).UTC().Format(time.RFC3339)
	bs.BlockedAt = &ts
	return bs, nil
}

// SetBlock replaces any existing block for the user.
func (s *SQLStore) SetBlock(ctx context.Context, userID, reason, blockedBy string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM bloqueos WHERE user_id=$1`), userID); err != nil {
			return err
		}
		var by any
		if blockedBy != "" {
			by = blockedBy
		}
		if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO bloqueos (user_id, motivo, bloqueado_por, fecha_bloqueo) VALUES ($1,$2,$3,$4)`),
			userID, reason, by, s.now().Unix()); err != nil {
			return err
		}
		return s.events.Append(ctx, tx, syncx.EventBlockChanged, userID, map[string]any{"blocked": true, "reason": reason, "by": blockedBy})
	})
}

func (s *SQLStore) ClearBlock(ctx context.Context, userID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM bloqueos WHERE user_id=$1`), userID); err != nil {
			return err
		}
		return s.events.Append(ctx, tx, syncx.EventBlockChanged, userID, map[string]any{"blocked": false})
	})
}

func (s *SQLStore) HasPermission(ctx context.Context, userID string, t Type) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT 1 FROM permisos WHERE user_id=$1 AND tipo=$2`), userID, string(t)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLStore) SetPermission(ctx context.Context, userID string, t Type, allowed bool) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM permisos WHERE user_id=$1 AND tipo=$2`), userID, string(t)); err != nil {
			return err
		}
		if allowed {
			if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO permisos (user_id, tipo) VALUES ($1,$2)`), userID, string(t)); err != nil {
				return err
			}
		}
		return s.events.Append(ctx, tx, syncx.EventPermissionChanged, userID, map[string]any{"tipo": t, "allowed": allowed})
	})
}

func (s *SQLStore) Template(ctx context.Context, t Type) (Evaluation, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT template_json FROM evaluaciones WHERE tipo=$1`), string(t)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Evaluation{}, ErrNotFound
	}
	if err != nil {
		return Evaluation{}, err
	}
	var e Evaluation
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return Evaluation{}, fmt.Errorf("decode template %s: %w", t, err)
	}
	return e, nil
}

func (s *SQLStore) PutTemplate(ctx context.Context, e Evaluation) error {
	if err := ValidateTemplate(&e); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = string(e.Type)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM evaluaciones WHERE tipo=$1`), string(e.Type)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO evaluaciones (tipo, titulo, template_json, updated_at) VALUES ($1,$2,$3,$4)`),
			string(e.Type), e.Title, string(raw), s.now().Unix()); err != nil {
			return err
		}
		return s.events.Append(ctx, tx, syncx.EventTemplateSaved, string(e.Type), map[string]any{"titulo": e.Title})
	})
}

func (s *SQLStore) SaveResult(ctx context.Context, userID string, r Result) (string, error) {
	if err := ValidateResult(&r); err != nil {
		return "", err
	}
	secJSON, err := json.Marshal(r.Sections)
	if err != nil {
		return "", err
	}
	ansJSON, err := json.Marshal(r.Answers)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO resultados
			(id, user_id, tipo, titulo, puntuacion, total_preguntas, respuestas_correctas, secciones_json, respuestas_json, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`),
			id, userID, string(r.Type), r.EvaluationTitle, r.Score, r.TotalAnswers, r.CorrectAnswers,
			string(secJSON), string(ansJSON), s.now().Unix()); err != nil {
			return err
		}
		return s.events.Append(ctx, tx, syncx.EventResultSaved, id, map[string]any{
			"user_id": userID, "tipo": r.Type, "score": r.Score,
		})
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLStore) ListResults(ctx context.Context, opts ResultListOpts) ([]StoredResult, error) {
	if opts.Limit <= 0 || opts.Limit > 200 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	where := []string{}
	args := []any{}
	if opts.UserID != "" {
		args = append(args, opts.UserID)
		where = append(where, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if opts.Type != "" {
		args = append(args, string(opts.Type))
		where = append(where, fmt.Sprintf("tipo=$%d", len(args)))
	}
	query := `SELECT id, user_id, tipo, titulo, puntuacion, total_preguntas, respuestas_correctas, secciones_json, respuestas_json, created_at FROM resultados`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, opts.Limit, opts.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []StoredResult{}
	for rows.Next() {
		var sr StoredResult
		var tipo, secJSON, ansJSON string
		if err := rows.Scan(&sr.ID, &sr.UserID, &tipo, &sr.EvaluationTitle, &sr.Score, &sr.TotalAnswers, &sr.CorrectAnswers,
			&secJSON, &ansJSON, &sr.CreatedAt); err != nil {
			return nil, err
		}
		sr.Type = Type(tipo)
		if err := json.Unmarshal([]byte(secJSON), &sr.Sections); err != nil {
			return nil, fmt.Errorf("decode sections of %s: %w", sr.ID, err)
		}
		if err := json.Unmarshal([]byte(ansJSON), &sr.Answers); err != nil {
			return nil, fmt.Errorf("decode answers of %s: %w", sr.ID, err)
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

func (s *SQLStore) CompanyStats(ctx context.Context) ([]CompanyStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT e.nombre,
		COUNT(DISTINCT u.id),
		COUNT(r.id),
		AVG(r.puntuacion * 1.0),
		MAX(r.created_at)
	FROM empresas e
	LEFT JOIN usuarios u ON u.empresa_id = e.id
	LEFT JOIN resultados r ON r.user_id = u.id
	GROUP BY e.id, e.nombre
	ORDER BY e.nombre`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []CompanyStats{}
	for rows.Next() {
		var c CompanyStats
		var avg sql.NullFloat64
		var last sql.NullInt64
		if err := rows.Scan(&c.Name, &c.Users, &c.Evaluations, &avg, &last); err != nil {
			return nil, err
		}
		if avg.Valid {
			c.AverageScore = avg.Float64
		}
		if last.Valid {
			ts := time.Unix(last.Int64, 0).UTC().Format(time.RFC3339)
			c.LastEvaluation = &ts
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
