package common

import (
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func ConnectDb(dbFile string) *gorm.DB {
	if dbFile == "" {
		Logger.Error("sqlite_db not set")
		return nil
	}

	// TranslateError maps the driver's unique-violation error onto
	// gorm.ErrDuplicatedKey, which the like toggle relies on.
	db, err := gorm.Open(sqlite.Open(dbFile), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		Logger.Error("error opening sqlite db", zap.String("file", dbFile), zap.Error(err))
		return nil
	}

	Logger.Info("opened sqlite db", zap.String("file", dbFile))
	return db
}
