package database

import (
	"database/sql"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLiteDriverName is a sqlite3 driver whose lower() and upper() fold the
// full Unicode range instead of ASCII only.
const SQLiteDriverName = "sqlite3_unicode"

var registerSQLite sync.Once

// SQLiteDialector opens dsn through the Unicode-aware sqlite driver.
func SQLiteDialector(dsn string) gorm.Dialector {
	registerSQLite.Do(func() {
		sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				if err := conn.RegisterFunc("lower", foldWith(strings.ToLower), true); err != nil {
					return err
				}
				return conn.RegisterFunc("upper", foldWith(strings.ToUpper), true)
			},
		})
	})
	return sqlite.New(sqlite.Config{DriverName: SQLiteDriverName, DSN: dsn})
}

// foldWith applies fn to TEXT values and passes NULL and BLOB through.
func foldWith(fn func(string) string) func(interface{}) interface{} {
	return func(v interface{}) interface{} {
		if s, ok := v.(string); ok {
			return fn(s)
		}
		return v
	}
}
