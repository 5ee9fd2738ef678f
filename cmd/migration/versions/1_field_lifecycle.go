package versions

import (
	"log"

	"brandvault/asset_vault/schema"

	"gorm.io/gorm"
)

// Migration_1_field_lifecycle introduces field deprecation and platform-wide
// category suppressions. Before this migration fields were hard deleted, so
// every existing row is simply marked as live.
func Migration_1_field_lifecycle(txn *gorm.DB) error {
	if err := txn.Migrator().AddColumn(&schema.MetadataField{}, "Deprecated"); err != nil {
		return err
	}
	if err := txn.Migrator().AddColumn(&schema.MetadataField{}, "DeprecatedAt"); err != nil {
		return err
	}

	if err := txn.AutoMigrate(&schema.CategorySuppression{}); err != nil {
		return err
	}

	log.Println("field lifecycle migration complete")

	return nil
}
