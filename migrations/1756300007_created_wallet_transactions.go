package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "pbc_3380690069",
			"name": "wallet_transactions",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "rel_wt_user",
					"name": "user",
					"type": "relation",
					"required": true,
					"collectionId": "_pb_users_auth_",
					"cascadeDelete": false,
					"maxSelect": 1
				},
				{
					"id": "num_wt_amount",
					"name": "amount",
					"type": "number",
					"required": true,
					"onlyInt": true,
					"min": 0
				},
				{
					"id": "sel_wt_direction",
					"name": "direction",
					"type": "select",
					"required": true,
					"maxSelect": 1,
					"values": ["debit", "credit"]
				},
				{
					"id": "text_wt_reference",
					"name": "reference",
					"type": "text",
					"required": false
				},
				{
					"id": "text_wt_description",
					"name": "description",
					"type": "text",
					"required": false
				},
				{
					"id": "autodate_wt_created",
					"name": "created",
					"type": "autodate",
					"onCreate": true,
					"onUpdate": false
				}
			],
			"indexes": [],
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
		collection, err := app.FindCollectionByNameOrId("pbc_3380690069")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
