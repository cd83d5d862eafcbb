package database

import (
	"gorm.io/gorm"

	"selah/common"
	"selah/models"
)

func RunMigrations(db *gorm.DB) error {
	common.Logger.Info("running database migrations")

	err := db.AutoMigrate(
		&models.Account{},
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
	)

	if err != nil {
		common.Logger.Error("error running migrations: " + err.Error())
		return err
	}

	common.Logger.Info("migrations completed successfully")
	return nil
}
