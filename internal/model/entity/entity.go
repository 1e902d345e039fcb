package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移所有制造模块表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 基础数据
		&Product{},
		&WorkCenter{},

		// BOM
		&BOM{},
		&BOMItem{},

		// 生产
		&ProductionOrder{},
		&ProductionOperation{},
		&MaterialConsumption{},
		&QualityInspection{},
	)
}
