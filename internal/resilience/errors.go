package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// retryableSQLStates are PostgreSQL error codes worth another attempt.
var retryableSQLStates = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"57P03": true, // cannot_connect_now
	"53300": true, // too_many_connections
}

// sqliteBusyMarkers appear in modernc sqlite errors raised under lock
// contention.
var sqliteBusyMarkers = []string{"database is locked", "sqlite_busy", "database table is locked"}

// IsTransient reports whether err is likely to succeed on retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return retryableSQLStates[pgErr.Code] || strings.HasPrefix(pgErr.Code, "08")
	}

	if pgconn.SafeToRetry(err) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, m := range sqliteBusyMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
