package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "pbc_1687431684",
			"name": "events",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "text_ev_name",
					"name": "name",
					"type": "text",
					"required": true,
					"presentable": true,
					"max": 255
				},
				{
					"id": "rel_ev_creator",
					"name": "creator",
					"type": "relation",
					"required": true,
					"collectionId": "_pb_users_auth_",
					"cascadeDelete": false,
					"maxSelect": 1
				},
				{
					"id": "text_ev_venue",
					"name": "venue",
					"type": "text",
					"required": false
				},
				{
					"id": "date_ev_starts",
					"name": "starts_at",
					"type": "date",
					"required": false
				},
				{
					"id": "sel_ev_status",
					"name": "status",
					"type": "select",
					"required": false,
					"maxSelect": 1,
					"values": ["draft", "published", "ended"]
				},
				{
					"id": "num_ev_sold",
					"name": "tickets_sold",
					"type": "number",
					"required": false,
					"onlyInt": true
				},
				{
					"id": "num_ev_revenue",
					"name": "total_revenue",
					"type": "number",
					"required": false,
					"onlyInt": true
				},
				{
					"id": "json_ev_types",
					"name": "ticket_types",
					"type": "json",
					"required": false,
					"maxSize": 2000000
				}
			],
			"indexes": [],
			"listRule": "",
			"viewRule": "",
			"createRule": "@request.auth.id != ''",
			"updateRule": "@request.auth.id = creator",
			"deleteRule": "@request.auth.id = creator"
		}`

		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(jsonData), collection); err != nil {
			return err
		}
		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("pbc_1687431684")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
