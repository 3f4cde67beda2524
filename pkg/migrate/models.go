package migrate

import "github.com/plazagoods/storefront-backend/pkg/db/models"

func devAutoMigrateModels() []any {
	return []any{
		&models.Product{},
		&models.CartEntry{},
	}
}
