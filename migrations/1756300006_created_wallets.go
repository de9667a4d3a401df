package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "pbc_2662959436",
			"name": "wallets",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "rel_wl_user",
					"name": "user",
					"type": "relation",
					"required": true,
					"presentable": true,
					"collectionId": "_pb_users_auth_",
					"cascadeDelete": true,
					"maxSelect": 1
				},
				{
					"id": "num_wl_balance",
					"name": "balance",
					"type": "number",
					"required": false,
					"onlyInt": true,
					"min": 0
				}
			],
			"indexes": [
				"CREATE UNIQUE INDEX idx_wallets_user ON wallets (user)"
			],
			"listRule": null,
			"viewRule": null,
			"createRule": null,
			"updateRule": null,
			"deleteRule": null
		}`

		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(jsonData), collection); err != nil {
			return err
		}
		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("pbc_2662959436")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
