package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lexbrief/internal/domain"
	"lexbrief/internal/domain/model"
	"lexbrief/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const selectUser = `
SELECT u.id, u.email, u.full_name, u.is_guest, u.onboarding_completed, u.created_at, u.updated_at,
       COALESCE(p.user_type, ''), COALESCE(p.profession, ''), COALESCE(p.communication_style, ''),
       COALESCE(p.country, ''), COALESCE(p.country_code, ''), COALESCE(p.region, ''), COALESCE(p.city, ''),
       COALESCE(p.bio, ''), COALESCE(p.university, ''), COALESCE(p.level, ''), COALESCE(p.law_school, ''),
       p.call_to_bar_year, COALESCE(p.area_of_study, ''), COALESCE(p.expertise_ids, '{}'),
       COALESCE(p.call_number, ''), p.wants_client_referrals, COALESCE(p.documents, '{}'::jsonb)
  FROM users u
  LEFT JOIN user_profiles p ON p.user_id = u.id`

// Save upserts the user row and its profile row. Callers wanting atomicity pass a tx.
func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}

	const qUser = `
INSERT INTO users (id, email, full_name, is_guest, onboarding_completed, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  email=$2, full_name=$3, is_guest=$4, onboarding_completed=$5, updated_at=$7;`
	if _, err := ex.Exec(ctx, qUser, u.ID, u.Email, u.FullName, u.IsGuest, u.OnboardingCompleted, u.CreatedAt, u.UpdatedAt); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	p := u.Profile
	docs, err := json.Marshal(p.Documents)
	if err != nil {
		return err
	}
	if p.Documents == nil {
		docs = []byte("{}")
	}
	var year *int32
	if p.CallToBarYear != nil {
		y := int32(*p.CallToBarYear)
		year = &y
	}
	ids := make([]int32, len(p.ExpertiseIDs))
	for i, id := range p.ExpertiseIDs {
		ids[i] = int32(id)
	}

	const qProfile = `
INSERT INTO user_profiles (
  user_id, user_type, profession, communication_style, country, country_code, region, city,
  bio, university, level, law_school, call_to_bar_year, area_of_study, expertise_ids,
  call_number, wants_client_referrals, documents
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
ON CONFLICT (user_id) DO UPDATE SET
  user_type=$2, profession=$3, communication_style=$4, country=$5, country_code=$6, region=$7, city=$8,
  bio=$9, university=$10, level=$11, law_school=$12, call_to_bar_year=$13, area_of_study=$14,
  expertise_ids=$15, call_number=$16, wants_client_referrals=$17, documents=$18;`
	_, err = ex.Exec(ctx, qProfile,
		u.ID, string(p.UserType), p.Profession, string(p.CommunicationStyle), p.Country, p.CountryCode,
		p.Region, p.City, p.Bio, p.University, p.Level, p.LawSchool, year, p.AreaOfStudy, ids,
		p.CallNumber, p.WantsClientReferrals, docs)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	return r.findOne(ctx, tx, selectUser+` WHERE u.id=$1;`, id)
}

func (r *PostgresUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	return r.findOne(ctx, tx, selectUser+` WHERE lower(u.email)=lower($1);`, email)
}

func (r *PostgresUserRepo) findOne(ctx context.Context, tx repository.Tx, q string, arg any) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, q, arg)
	if err != nil {
		return nil, err
	}
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	return u, err
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u        model.User
		p        = &u.Profile
		userType string
		style    string
		year     *int32
		ids      []int32
		docs     []byte
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.IsGuest, &u.OnboardingCompleted, &u.CreatedAt, &u.UpdatedAt,
		&userType, &p.Profession, &style, &p.Country, &p.CountryCode, &p.Region, &p.City,
		&p.Bio, &p.University, &p.Level, &p.LawSchool, &year, &p.AreaOfStudy, &ids,
		&p.CallNumber, &p.WantsClientReferrals, &docs,
	)
	if err != nil {
		return nil, err
	}
	p.UserType = model.UserType(userType)
	p.CommunicationStyle = model.CommunicationStyle(style)
	if year != nil {
		y := int(*year)
		p.CallToBarYear = &y
	}
	for _, id := range ids {
		p.ExpertiseIDs = append(p.ExpertiseIDs, int(id))
	}
	if len(docs) > 0 {
		if err := json.Unmarshal(docs, &p.Documents); err != nil {
			return nil, fmt.Errorf("decode documents: %w", err)
		}
		if len(p.Documents) == 0 {
			p.Documents = nil
		}
	}
	return &u, nil
}

func (r *PostgresUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	return r.count(ctx, tx, `SELECT COUNT(*) FROM users WHERE NOT is_guest;`)
}

// CountOnboarded applies the same completion rule as model.User.HasCompletedOnboarding.
func (r *PostgresUserRepo) CountOnboarded(ctx context.Context, tx repository.Tx) (int, error) {
	return r.count(ctx, tx, `
SELECT COUNT(*) FROM users u LEFT JOIN user_profiles p ON p.user_id = u.id
 WHERE NOT u.is_guest AND (u.onboarding_completed IS TRUE OR btrim(COALESCE(p.profession, '')) <> '');`)
}

func (r *PostgresUserRepo) count(ctx context.Context, tx repository.Tx, q string) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
