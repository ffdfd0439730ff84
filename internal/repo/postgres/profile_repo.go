package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moonssword/dating-bot/internal/domain/enums"
	"github.com/moonssword/dating-bot/internal/domain/model"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoCandidates    = errors.New("no candidates")
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

const profileColumns = `
	p.account_id,
	COALESCE(p.display_name, ''),
	COALESCE(p.gender, ''),
	p.birthdate,
	COALESCE(EXTRACT(YEAR FROM age(p.birthdate))::int, 0),
	COALESCE(p.about_me, ''),
	p.is_active,
	COALESCE(p.photo_id, 0),
	COALESCE(p.photo_path, ''),
	COALESCE(p.photo_blurred_path, ''),
	COALESCE(p.photo_uploaded_at, p.created_at),
	COALESCE(p.locality, ''),
	COALESCE(p.location_display, ''),
	COALESCE(p.location_state, ''),
	COALESCE(p.country, ''),
	COALESCE(p.latitude, 0),
	COALESCE(p.longitude, 0),
	p.sent_geolocation,
	COALESCE(p.pref_gender, ''),
	COALESCE(p.pref_age_min, 18),
	COALESCE(p.pref_age_max, 110),
	COALESCE(p.pref_locality, ''),
	COALESCE(p.pref_country, ''),
	p.created_at,
	p.updated_at`

func scanProfile(row pgx.Row) (model.Profile, error) {
	var p model.Profile
	err := row.Scan(
		&p.AccountID,
		&p.DisplayName,
		&p.Gender,
		&p.Birthdate,
		&p.Age,
		&p.AboutMe,
		&p.IsActive,
		&p.Photo.PhotoID,
		&p.Photo.Path,
		&p.Photo.BlurredPath,
		&p.Photo.UploadedAt,
		&p.Location.Locality,
		&p.Location.DisplayName,
		&p.Location.State,
		&p.Location.Country,
		&p.Location.Latitude,
		&p.Location.Longitude,
		&p.Location.SentGeolocation,
		&p.Preferences.Gender,
		&p.Preferences.AgeMin,
		&p.Preferences.AgeMax,
		&p.Preferences.Locality,
		&p.Preferences.Country,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (r *ProfileRepo) Get(ctx context.Context, accountID int64) (model.Profile, error) {
	profile, err := scanProfile(r.pool.QueryRow(ctx, `
SELECT`+profileColumns+`
FROM profiles p
WHERE p.account_id = $1
`, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// Save upserts the whole profile row. Registration fills it field by
// field through the session draft, so the row only appears here once
// the draft is complete.
func (r *ProfileRepo) Save(ctx context.Context, p model.Profile) error {
	if p.AccountID <= 0 {
		return fmt.Errorf("invalid profile account id")
	}

	_, err := r.pool.Exec(ctx, `
INSERT INTO profiles (
	account_id,
	display_name,
	gender,
	birthdate,
	about_me,
	is_active,
	photo_id,
	photo_path,
	photo_blurred_path,
	photo_uploaded_at,
	locality,
	location_display,
	location_state,
	country,
	latitude,
	longitude,
	sent_geolocation,
	pref_gender,
	pref_age_min,
	pref_age_max,
	pref_locality,
	pref_country,
	created_at,
	updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
	$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
	$21, $22, NOW(), NOW()
)
ON CONFLICT (account_id) DO UPDATE SET
	display_name = EXCLUDED.display_name,
	gender = EXCLUDED.gender,
	birthdate = EXCLUDED.birthdate,
	about_me = EXCLUDED.about_me,
	is_active = EXCLUDED.is_active,
	photo_id = EXCLUDED.photo_id,
	photo_path = EXCLUDED.photo_path,
	photo_blurred_path = EXCLUDED.photo_blurred_path,
	photo_uploaded_at = EXCLUDED.photo_uploaded_at,
	locality = EXCLUDED.locality,
	location_display = EXCLUDED.location_display,
	location_state = EXCLUDED.location_state,
	country = EXCLUDED.country,
	latitude = EXCLUDED.latitude,
	longitude = EXCLUDED.longitude,
	sent_geolocation = EXCLUDED.sent_geolocation,
	pref_gender = EXCLUDED.pref_gender,
	pref_age_min = EXCLUDED.pref_age_min,
	pref_age_max = EXCLUDED.pref_age_max,
	pref_locality = EXCLUDED.pref_locality,
	pref_country = EXCLUDED.pref_country,
	updated_at = NOW()
`,
		p.AccountID,
		p.DisplayName,
		p.Gender,
		p.Birthdate,
		p.AboutMe,
		p.IsActive,
		p.Photo.PhotoID,
		p.Photo.Path,
		p.Photo.BlurredPath,
		p.Photo.UploadedAt,
		p.Location.Locality,
		p.Location.DisplayName,
		p.Location.State,
		p.Location.Country,
		p.Location.Latitude,
		p.Location.Longitude,
		p.Location.SentGeolocation,
		p.Preferences.Gender,
		p.Preferences.AgeMin,
		p.Preferences.AgeMax,
		p.Preferences.Locality,
		p.Preferences.Country,
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (r *ProfileRepo) SetActive(ctx context.Context, accountID int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE profiles
SET is_active = $2, updated_at = NOW()
WHERE account_id = $1
`, accountID, active)
	if err != nil {
		return fmt.Errorf("set profile active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepo) SetAbout(ctx context.Context, accountID int64, about string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE profiles
SET about_me = $2, updated_at = NOW()
WHERE account_id = $1
`, accountID, about)
	if err != nil {
		return fmt.Errorf("set profile about: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepo) SetPhoto(ctx context.Context, accountID int64, photo model.ProfilePhoto) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE profiles
SET photo_id = $2,
	photo_path = $3,
	photo_blurred_path = $4,
	photo_uploaded_at = $5,
	updated_at = NOW()
WHERE account_id = $1
`, accountID, photo.PhotoID, photo.Path, photo.BlurredPath, photo.UploadedAt)
	if err != nil {
		return fmt.Errorf("set profile photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepo) SetLocation(ctx context.Context, accountID int64, loc model.Location) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE profiles
SET locality = $2,
	location_display = $3,
	location_state = $4,
	country = $5,
	latitude = $6,
	longitude = $7,
	sent_geolocation = $8,
	updated_at = NOW()
WHERE account_id = $1
`, accountID, loc.Locality, loc.DisplayName, loc.State, loc.Country, loc.Latitude, loc.Longitude, loc.SentGeolocation)
	if err != nil {
		return fmt.Errorf("set profile location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepo) SetPreferences(ctx context.Context, accountID int64, prefs model.Preferences) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE profiles
SET pref_gender = $2,
	pref_age_min = $3,
	pref_age_max = $4,
	pref_locality = $5,
	pref_country = $6,
	updated_at = NOW()
WHERE account_id = $1
`, accountID, prefs.Gender, prefs.AgeMin, prefs.AgeMax, prefs.Locality, prefs.Country)
	if err != nil {
		return fmt.Errorf("set profile preferences: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// findNextCandidateSQL selects the oldest mutually eligible profile.
// A dislike edge in either direction removes the pair for good, which
// also covers unmatched pairs: unmatch records a single dislike by the
// party that left.
const findNextCandidateSQL = `
SELECT` + profileColumns + `
FROM profiles p
JOIN accounts a ON a.id = p.account_id
WHERE p.account_id <> $1
  AND p.is_active
  AND a.global_state = $2
  AND p.gender = $3
  AND EXTRACT(YEAR FROM age(p.birthdate))::int BETWEEN $4 AND $5
  AND ($6 = '' OR p.locality = $6)
  AND ($7 = '' OR p.country = $7)
  AND p.pref_gender = $8
  AND EXTRACT(YEAR FROM age($9::date))::int BETWEEN p.pref_age_min AND p.pref_age_max
  AND (p.pref_locality = '' OR p.pref_locality = $10)
  AND (p.pref_country = '' OR p.pref_country = $11)
  AND NOT EXISTS (
	SELECT 1 FROM profile_likes l
	WHERE l.from_account_id = $1 AND l.to_account_id = p.account_id
  )
  AND NOT EXISTS (
	SELECT 1 FROM profile_dislikes d
	WHERE (d.from_account_id = $1 AND d.to_account_id = p.account_id)
	   OR (d.from_account_id = p.account_id AND d.to_account_id = $1)
  )
  AND NOT EXISTS (
	SELECT 1 FROM matches m
	WHERE m.account_a = LEAST($1, p.account_id) AND m.account_b = GREATEST($1, p.account_id)
  )
ORDER BY p.created_at ASC, p.account_id ASC
LIMIT 1
`

// FindNextCandidate returns the oldest eligible profile the viewer has
// not yet reacted to. Eligibility is mutual: the candidate must fit the
// viewer's preferences and the viewer must fit the candidate's, and a
// dislike in either direction removes the pair for good. Every like or
// dislike removes the row from the result set, so repeated calls
// naturally walk the queue forward.
func (r *ProfileRepo) FindNextCandidate(ctx context.Context, viewer model.Profile) (model.Profile, error) {
	if viewer.AccountID <= 0 {
		return model.Profile{}, fmt.Errorf("invalid viewer account id")
	}

	profile, err := scanProfile(r.pool.QueryRow(ctx, findNextCandidateSQL,
		viewer.AccountID,
		enums.GlobalStateActive,
		viewer.Preferences.Gender,
		viewer.Preferences.AgeMin,
		viewer.Preferences.AgeMax,
		viewer.Preferences.Locality,
		viewer.Preferences.Country,
		viewer.Gender,
		viewer.Birthdate,
		viewer.Location.Locality,
		viewer.Location.Country,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrNoCandidates
		}
		return model.Profile{}, fmt.Errorf("find next candidate: %w", err)
	}

	return profile, nil
}
