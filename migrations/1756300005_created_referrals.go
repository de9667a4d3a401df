package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "pbc_1001261735",
			"name": "referrals",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "text_rl_code",
					"name": "code",
					"type": "text",
					"required": true,
					"presentable": true,
					"max": 64
				},
				{
					"id": "rel_rl_owner",
					"name": "owner",
					"type": "relation",
					"required": true,
					"collectionId": "_pb_users_auth_",
					"cascadeDelete": true,
					"maxSelect": 1
				},
				{
					"id": "json_rl_referred",
					"name": "referred_users",
					"type": "json",
					"required": false,
					"maxSize": 2000000
				},
				{
					"id": "num_rl_gain",
					"name": "ref_gain",
					"type": "number",
					"required": false,
					"onlyInt": true
				},
				{
					"id": "num_rl_withdrawn",
					"name": "total_withdrawn",
					"type": "number",
					"required": false,
					"onlyInt": true
				}
			],
			"indexes": [
				"CREATE UNIQUE INDEX idx_referrals_code ON referrals (code)"
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
		collection, err := app.FindCollectionByNameOrId("pbc_1001261735")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
