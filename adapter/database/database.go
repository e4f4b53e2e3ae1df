package database

import (
	"errors"
	"time"

	"github.com/finneas-io/edgar/domain/company"
	"github.com/google/uuid"
)

type Database interface {
	Close() error
	CreateBaseTables() error
	InsertCompany(cmp *company.Company) error
	GetCompany(ticker string) (*company.Company, error)
	GetCompanies() ([]*company.Company, error)
	InsertSyncRun(run *SyncRun) error
}

// SyncRun records the outcome of one batch resolution.
type SyncRun struct {
	Id         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Resolved   int
	Missing    int
	Failed     int
}

var ErrDuplicate = errors.New("Duplicate key error")
var ErrNotFound = errors.New("Key not found error")
