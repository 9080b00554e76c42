package repository

import (
	"github.com/deppfellow/user-api/internal/config"
	"github.com/deppfellow/user-api/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Users UserRepository
}

// NewRepositories picks the user store for the configured driver.
func NewRepositories(s *server.Server) *Repositories {
	if s.Config.Database.Driver == config.DriverMemory {
		return &Repositories{Users: NewMemoryUsers()}
	}
	return &Repositories{Users: NewPostgresUsers(s.DB)}
}
