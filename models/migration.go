package models

import (
	"log"

	"bitbucket.org/mmdatafocus/shop_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Admin{}, &Client{},
		&Category{}, &Product{},
		&Bill{}, &BillItem{}, &BillNumberSeries{},
		&StockAlert{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
