package services

import (
	"errors"
	"log"

	"ctf-learning-platform/models"

	"gorm.io/gorm"
)

// ScoringService coordinates a submission event: flag matching, progress
// updates, experience and leaderboard recompute. Every submission runs
// inside one DB transaction: either all effects land or none do, so
// points can never appear on a progress row without showing up in
// experience and the leaderboard.
type ScoringService struct {
	DB          *gorm.DB
	Progress    *ProgressService
	Progression *ProgressionService
	Leaderboard *LeaderboardService
}

func NewScoringService(db *gorm.DB) *ScoringService {
	return &ScoringService{
		DB:          db,
		Progress:    NewProgressService(db),
		Progression: NewProgressionService(db),
		Leaderboard: NewLeaderboardService(db),
	}
}

// SubmissionResult is the outcome of a flag submission.
type SubmissionResult struct {
	Correct       bool   `json:"correct"`
	Attempts      int    `json:"attempts"`
	PointsEarned  int64  `json:"points_earned"`
	AlreadySolved bool   `json:"already_solved"`
	ChallengeID   string `json:"challenge_id"`
}

// ModuleCompletionResult is the outcome of a module completion.
type ModuleCompletionResult struct {
	PointsEarned     int64  `json:"points_earned"`
	AlreadyCompleted bool   `json:"already_completed"`
	ModuleID         string `json:"module_id"`
}

// SubmitFlag runs the whole submission state machine. Wrong answers
// still persist the attempt increment. Re-solving an already-completed
// challenge is a success that grants nothing further; there is no
// "already completed" error anywhere in this engine.
func (s *ScoringService) SubmitFlag(externalUserID, challengeID, submitted string) (*SubmissionResult, error) {
	var result SubmissionResult

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var challenge models.Challenge
		err := tx.Where("id = ? AND is_active = ?", challengeID, true).First(&challenge).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("challenge", challengeID)
		}
		if err != nil {
			return err
		}

		prog, err := s.Progress.GetOrCreateChallengeProgress(tx, externalUserID, challengeID)
		if err != nil {
			return err
		}
		if err := s.Progress.RecordAttempt(tx, prog); err != nil {
			return err
		}

		var flags []models.Flag
		if err := tx.Where("challenge_id = ? AND is_active = ?", challengeID, true).
			Order("created_at ASC, id ASC").
			Find(&flags).Error; err != nil {
			return err
		}

		matched := MatchFlag(flags, submitted)
		result = SubmissionResult{
			Attempts:    prog.Attempts,
			ChallengeID: challengeID,
		}

		if matched == nil {
			// Wrong answer: commit the attempt, nothing else changes.
			return nil
		}

		result.Correct = true

		first, err := s.Progress.MarkCompleted(tx, prog, matched.Points)
		if err != nil {
			return err
		}
		if !first {
			result.AlreadySolved = true
			return nil
		}

		result.PointsEarned = matched.Points

		if _, err := s.Progression.EnsureUserRecord(tx, externalUserID); err != nil {
			return err
		}
		if _, err := s.Progression.ApplyExperience(tx, externalUserID, matched.Points); err != nil {
			return err
		}
		return s.Leaderboard.RecomputeForUser(tx, externalUserID)
	})
	if err != nil {
		return nil, transient(err)
	}

	if result.Correct && !result.AlreadySolved {
		log.Printf("🚩 [SCORING] %s solved challenge %s (+%d pts)", externalUserID, challengeID, result.PointsEarned)
	}
	return &result, nil
}

// CompleteModule marks a module as completed and awards its points.
// Idempotent: repeat calls return the originally awarded points with no
// further effect on experience or the leaderboard.
func (s *ScoringService) CompleteModule(externalUserID, moduleID string) (*ModuleCompletionResult, error) {
	var result ModuleCompletionResult

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var module models.Module
		err := tx.Where("id = ? AND is_active = ?", moduleID, true).First(&module).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("module", moduleID)
		}
		if err != nil {
			return err
		}

		prog, err := s.Progress.GetOrCreateModuleProgress(tx, externalUserID, moduleID)
		if err != nil {
			return err
		}

		first, err := s.Progress.MarkCompleted(tx, prog, module.Points)
		if err != nil {
			return err
		}

		result.ModuleID = moduleID
		if !first {
			result.AlreadyCompleted = true
			result.PointsEarned = prog.Score // what was awarded the first time
			return nil
		}

		result.PointsEarned = module.Points

		if _, err := s.Progression.EnsureUserRecord(tx, externalUserID); err != nil {
			return err
		}
		if _, err := s.Progression.ApplyExperience(tx, externalUserID, module.Points); err != nil {
			return err
		}
		return s.Leaderboard.RecomputeForUser(tx, externalUserID)
	})
	if err != nil {
		return nil, transient(err)
	}

	if !result.AlreadyCompleted {
		log.Printf("📚 [SCORING] %s completed module %s (+%d pts)", externalUserID, moduleID, result.PointsEarned)
	}
	return &result, nil
}

// UpdateChallengeTime accumulates time spent on a challenge and returns
// the fresh progress snapshot.
func (s *ScoringService) UpdateChallengeTime(externalUserID, challengeID string, seconds int) (*models.UserProgress, error) {
	return s.updateTime(externalUserID, challengeID, seconds, false, false)
}

// UpdateModuleTime accumulates time spent on a module, optionally also
// counting an attempt, and returns the fresh progress snapshot.
func (s *ScoringService) UpdateModuleTime(externalUserID, moduleID string, seconds int, countAttempt bool) (*models.UserProgress, error) {
	return s.updateTime(externalUserID, moduleID, seconds, true, countAttempt)
}

func (s *ScoringService) updateTime(externalUserID, targetID string, seconds int, isModule, countAttempt bool) (*models.UserProgress, error) {
	var snapshot *models.UserProgress

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if isModule {
			var module models.Module
			err := tx.Where("id = ? AND is_active = ?", targetID, true).First(&module).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("module", targetID)
			}
			if err != nil {
				return err
			}
		} else {
			var challenge models.Challenge
			err := tx.Where("id = ? AND is_active = ?", targetID, true).First(&challenge).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("challenge", targetID)
			}
			if err != nil {
				return err
			}
		}

		var prog *models.UserProgress
		var err error
		if isModule {
			prog, err = s.Progress.GetOrCreateModuleProgress(tx, externalUserID, targetID)
		} else {
			prog, err = s.Progress.GetOrCreateChallengeProgress(tx, externalUserID, targetID)
		}
		if err != nil {
			return err
		}

		if err := s.Progress.AddTimeSpent(tx, prog, seconds); err != nil {
			return err
		}
		if countAttempt {
			if err := s.Progress.RecordAttempt(tx, prog); err != nil {
				return err
			}
		}

		snapshot = prog
		return nil
	})
	if err != nil {
		return nil, transient(err)
	}
	return snapshot, nil
}
