package members

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venuepos/internal/repo"
	"github.com/angelmondragon/venuepos/pkg/db/models"
	"github.com/angelmondragon/venuepos/pkg/enums"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Repository reads and writes member rows.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

// Create inserts a member row.
func (r *Repository) Create(ctx context.Context, member *models.Member) (*models.Member, error) {
	if err := r.DB(ctx).Create(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

// FindActiveByID loads an active member.
func (r *Repository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var member models.Member
	err := r.DB(ctx).
		Where("status = ?", enums.MembershipStatusActive).
		First(&member, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// StreamActiveMatches feeds yield, one row at a time and in insertion order,
// the active members whose name or member number contains query (ignoring
// case) or whose phone contains it. At most limit rows are read.
func (r *Repository) StreamActiveMatches(ctx context.Context, query string, limit int, yield func(models.Member) bool) error {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
	phonePattern := "%" + likeEscaper.Replace(query) + "%"

	stmt := r.DB(ctx).
		Model(&models.Member{}).
		Where("status = ?", enums.MembershipStatusActive).
		Where(
			`LOWER(full_name) LIKE ? ESCAPE '\' OR LOWER(member_number) LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\'`,
			pattern, pattern, phonePattern,
		).
		Order("created_at ASC").
		Order("id ASC")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	return repo.Stream(ctx, stmt, yield)
}
