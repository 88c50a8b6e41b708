package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/alumni-connect/api/model"
	"github.com/alumni-connect/api/utils/auth"
)

// DeactivatePastEvents flags events whose date is behind us as inactive so
// they drop out of upcoming-event listings and stop accepting registrations.
func (m *CronManager) DeactivatePastEvents() {
	jobName := "deactivate_past_events"

	cutoff := time.Now().Truncate(24 * time.Hour)
	result := m.db.Model(&model.Event{}).
		Where("is_active = ? AND date < ?", true, cutoff).
		Update("is_active", false)
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to deactivate events: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Deactivated %d past events", result.RowsAffected))
}

// CloseExpiredJobs deactivates job postings whose application deadline has
// passed. Postings without a deadline stay open until deleted.
func (m *CronManager) CloseExpiredJobs() {
	jobName := "close_expired_jobs"

	result := m.db.Model(&model.Job{}).
		Where("is_active = ? AND deadline IS NOT NULL AND deadline < ?", true, time.Now()).
		Update("is_active", false)
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to close expired jobs: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Closed %d expired job postings", result.RowsAffected))
}

// CleanupTokenBlacklist purges blacklist rows for tokens that have already
// expired on their own.
func (m *CronManager) CleanupTokenBlacklist() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobName := "cleanup_token_blacklist"

	blacklist := auth.NewBlacklistService(m.db)
	if err := blacklist.CleanupExpiredTokens(ctx); err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to cleanup blacklist: %w", err))
		return
	}

	m.logJobComplete(jobName, "Expired blacklist entries removed")
}

// RefreshUniversityCounts recomputes the cached student and alumni counts
// from the users table.
func (m *CronManager) RefreshUniversityCounts() {
	jobName := "refresh_university_counts"

	var universities []model.University
	if err := m.db.Find(&universities).Error; err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to load universities: %w", err))
		return
	}

	updated := 0
	for _, uni := range universities {
		var students, alumni int64
		if err := m.db.Model(&model.User{}).
			Where("university_id = ? AND role = ?", uni.ID, model.RoleStudent).
			Count(&students).Error; err != nil {
			m.logJobError(jobName, fmt.Errorf("failed to count students for university %d: %w", uni.ID, err))
			return
		}
		if err := m.db.Model(&model.User{}).
			Where("university_id = ? AND role = ?", uni.ID, model.RoleAlumni).
			Count(&alumni).Error; err != nil {
			m.logJobError(jobName, fmt.Errorf("failed to count alumni for university %d: %w", uni.ID, err))
			return
		}

		if err := m.db.Model(&model.University{}).
			Where("id = ?", uni.ID).
			Updates(map[string]interface{}{
				"students_count": students,
				"alumni_count":   alumni,
			}).Error; err != nil {
			m.logJobError(jobName, fmt.Errorf("failed to update counts for university %d: %w", uni.ID, err))
			return
		}
		updated++
	}

	m.logJobComplete(jobName, fmt.Sprintf("Refreshed counts for %d universities", updated))
}
