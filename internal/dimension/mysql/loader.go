package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/BarkinBalci/insurance-etl-pipeline/internal/config"
	"github.com/BarkinBalci/insurance-etl-pipeline/internal/domain"
)

const snapshotQuery = `SELECT user_id, signup_date, city, device_type FROM users`

// Loader reads the users dimension table from MySQL.
type Loader struct {
	db     *sql.DB
	config *config.MySQL
	log    *zap.Logger
}

// NewLoader opens and verifies a MySQL connection for dimension loading.
func NewLoader(ctx context.Context, cfg *config.MySQL, log *zap.Logger) (*Loader, error) {
	dsnConfig := mysql.NewConfig()
	dsnConfig.Net = "tcp"
	dsnConfig.Addr = fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	dsnConfig.DBName = cfg.Database
	dsnConfig.User = cfg.User
	dsnConfig.Passwd = cfg.Password
	dsnConfig.ParseTime = true
	dsnConfig.Loc = time.UTC

	log.Info("Connecting to MySQL",
		zap.String("host", cfg.Host),
		zap.String("port", cfg.Port),
		zap.String("database", cfg.Database))

	db, err := sql.Open("mysql", dsnConfig.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeSec) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("Failed to close MySQL connection", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	log.Info("MySQL connection established successfully")

	return &Loader{db: db, config: cfg, log: log}, nil
}

// Snapshot loads the full users table keyed by user id, with signup_date
// truncated to a date. A missing table or missing required columns fails
// the query and is fatal to the run.
func (l *Loader) Snapshot(ctx context.Context) (map[int64]domain.UserDimension, error) {
	rows, err := l.db.QueryContext(ctx, snapshotQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to load users dimension: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			l.log.Error("Failed to close users rows", zap.Error(err))
		}
	}(rows)

	snapshot := make(map[int64]domain.UserDimension)
	for rows.Next() {
		var (
			userID     int64
			signupDate time.Time
			city       sql.NullString
			deviceType sql.NullString
		)
		if err := rows.Scan(&userID, &signupDate, &city, &deviceType); err != nil {
			return nil, fmt.Errorf("failed to scan users row: %w", err)
		}
		snapshot[userID] = domain.UserDimension{
			UserID:     userID,
			SignupDate: domain.NewDate(signupDate),
			City:       city.String,
			DeviceType: deviceType.String,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users rows: %w", err)
	}

	l.log.Info("Loaded users dimension snapshot", zap.Int("user_count", len(snapshot)))

	return snapshot, nil
}

// Close closes the MySQL connection.
func (l *Loader) Close() error {
	l.log.Info("Closing MySQL connection")
	return l.db.Close()
}
