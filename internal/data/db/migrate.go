package db

import (
	types "github.com/studyarc/resourcebank-backend/internal/domain"
)

// Models returns every table the resource bank migrates, in dependency order.
func Models() []any {
	return []any{
		&types.Resource{},
		&types.GeneratedExplanation{},
		&types.TopicResourceLink{},
		&types.TenantQuota{},
		&types.SyncRun{},
		&types.JobRun{},
	}
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := s.db.AutoMigrate(Models()...); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}
