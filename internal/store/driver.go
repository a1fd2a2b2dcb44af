package store

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Two drivers are supported: sqlite keeps development and the test suite
// self-contained, postgres is the deployment target. Both enforce the unique
// indexes that settle concurrent linking races, which is why the store never
// special-cases the driver elsewhere.
var dialectors = map[string]func(dsn string) gorm.Dialector{
	"sqlite":   sqlite.Open,
	"postgres": postgres.Open,
}

// GetDialector resolves a driver name to its GORM dialector.
func GetDialector(driver, dsn string) (gorm.Dialector, error) {
	open, ok := dialectors[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	return open(dsn), nil
}
