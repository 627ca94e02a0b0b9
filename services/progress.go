package services

import (
	"errors"
	"time"

	"ctf-learning-platform/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressService owns per-(user, target) progress rows. All mutating
// methods take the caller's transaction handle so a whole submission
// commits or rolls back as one unit.
type ProgressService struct {
	DB *gorm.DB
}

func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{DB: db}
}

// GetOrCreateModuleProgress returns the user's progress row for a module,
// creating a zero-valued one if absent. Safe under concurrent calls: the
// insert is ON CONFLICT DO NOTHING against the (user, module) unique
// index, and the follow-up read takes a row lock so the caller holds the
// row exclusively for the rest of the transaction.
func (s *ProgressService) GetOrCreateModuleProgress(tx *gorm.DB, externalUserID, moduleID string) (*models.UserProgress, error) {
	return s.getOrCreate(tx, externalUserID, &moduleID, nil)
}

// GetOrCreateChallengeProgress is the challenge-target counterpart.
func (s *ProgressService) GetOrCreateChallengeProgress(tx *gorm.DB, externalUserID, challengeID string) (*models.UserProgress, error) {
	return s.getOrCreate(tx, externalUserID, nil, &challengeID)
}

func (s *ProgressService) getOrCreate(tx *gorm.DB, externalUserID string, moduleID, challengeID *string) (*models.UserProgress, error) {
	row := models.UserProgress{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		ModuleID:       moduleID,
		ChallengeID:    challengeID,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, err
	}

	q := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("external_user_id = ?", externalUserID)
	if moduleID != nil {
		q = q.Where("module_id = ?", *moduleID)
	} else {
		q = q.Where("challenge_id = ?", *challengeID)
	}

	var out models.UserProgress
	if err := q.First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordAttempt bumps the attempt counter. Allowed at any time, including
// after completion; total tries are tracked forever.
func (s *ProgressService) RecordAttempt(tx *gorm.DB, prog *models.UserProgress) error {
	err := tx.Model(&models.UserProgress{}).
		Where("id = ?", prog.ID).
		UpdateColumn("attempts", gorm.Expr("attempts + ?", 1)).Error
	if err != nil {
		return err
	}
	prog.Attempts++
	return nil
}

// AddTimeSpent accumulates elapsed seconds. Negative input is the
// caller's fault and is rejected, never clamped.
func (s *ProgressService) AddTimeSpent(tx *gorm.DB, prog *models.UserProgress, seconds int) error {
	if seconds < 0 {
		return invalid("time_spent must be >= 0, got %d", seconds)
	}
	err := tx.Model(&models.UserProgress{}).
		Where("id = ?", prog.ID).
		UpdateColumn("time_spent", gorm.Expr("time_spent + ?", seconds)).Error
	if err != nil {
		return err
	}
	prog.TimeSpent += seconds
	return nil
}

// MarkCompleted flips the row to completed and freezes score and
// completion time. Returns false without touching anything if the row is
// already completed; re-solving is a no-op, never an error. The update
// is a compare-and-set on completed=false so two transactions racing on
// the same row can never both claim the first completion.
func (s *ProgressService) MarkCompleted(tx *gorm.DB, prog *models.UserProgress, score int64) (bool, error) {
	if prog.Completed {
		return false, nil
	}

	now := time.Now().UTC()
	res := tx.Model(&models.UserProgress{}).
		Where("id = ? AND completed = ?", prog.ID, false).
		Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": now,
			"score":        score,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race, reload so the caller sees the frozen state.
		if err := tx.Where("id = ?", prog.ID).First(prog).Error; err != nil {
			return false, err
		}
		return false, nil
	}

	prog.Completed = true
	prog.CompletedAt = &now
	prog.Score = score
	return true, nil
}

// GetModuleProgress fetches an existing row without creating one.
func (s *ProgressService) GetModuleProgress(externalUserID, moduleID string) (*models.UserProgress, error) {
	var prog models.UserProgress
	err := s.DB.Where("external_user_id = ? AND module_id = ?", externalUserID, moduleID).First(&prog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prog, nil
}

// GetChallengeProgress fetches an existing row without creating one.
func (s *ProgressService) GetChallengeProgress(externalUserID, challengeID string) (*models.UserProgress, error) {
	var prog models.UserProgress
	err := s.DB.Where("external_user_id = ? AND challenge_id = ?", externalUserID, challengeID).First(&prog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prog, nil
}

// GetCompletedForUser returns all completed rows for a user.
func (s *ProgressService) GetCompletedForUser(db *gorm.DB, externalUserID string) ([]models.UserProgress, error) {
	var rows []models.UserProgress
	err := db.Where("external_user_id = ? AND completed = ?", externalUserID, true).Find(&rows).Error
	return rows, err
}
