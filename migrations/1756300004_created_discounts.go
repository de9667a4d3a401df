package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "pbc_3617222430",
			"name": "discounts",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "rel_dc_event",
					"name": "event",
					"type": "relation",
					"required": true,
					"collectionId": "pbc_1687431684",
					"cascadeDelete": true,
					"maxSelect": 1
				},
				{
					"id": "text_dc_code",
					"name": "code",
					"type": "text",
					"required": true,
					"presentable": true,
					"max": 64
				},
				{
					"id": "sel_dc_type",
					"name": "discount_type",
					"type": "select",
					"required": true,
					"maxSelect": 1,
					"values": ["percentage", "fixed"]
				},
				{
					"id": "num_dc_value",
					"name": "discount_value",
					"type": "number",
					"required": true,
					"onlyInt": true
				},
				{
					"id": "num_dc_max_uses",
					"name": "max_uses",
					"type": "number",
					"required": false,
					"onlyInt": true
				},
				{
					"id": "num_dc_used_count",
					"name": "used_count",
					"type": "number",
					"required": false,
					"onlyInt": true
				},
				{
					"id": "date_dc_expiry",
					"name": "expiry_date",
					"type": "date",
					"required": false
				}
			],
			"indexes": [
				"CREATE UNIQUE INDEX idx_discounts_event_code ON discounts (event, code)"
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
		collection, err := app.FindCollectionByNameOrId("pbc_3617222430")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
