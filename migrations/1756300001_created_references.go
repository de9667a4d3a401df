package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "pbc_2602490748",
			"name": "references",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "text_rf_reference",
					"name": "reference",
					"type": "text",
					"required": true,
					"presentable": true,
					"max": 32
				},
				{
					"id": "rel_rf_payer",
					"name": "payer",
					"type": "relation",
					"required": false,
					"collectionId": "_pb_users_auth_",
					"cascadeDelete": false,
					"maxSelect": 1
				},
				{
					"id": "num_rf_amount",
					"name": "amount",
					"type": "number",
					"required": false,
					"onlyInt": true
				},
				{
					"id": "sel_rf_purpose",
					"name": "purpose",
					"type": "select",
					"required": true,
					"maxSelect": 1,
					"values": ["ticket", "vote", "merch"]
				},
				{
					"id": "rel_rf_event",
					"name": "event",
					"type": "relation",
					"required": true,
					"collectionId": "pbc_1687431684",
					"cascadeDelete": false,
					"maxSelect": 1
				},
				{
					"id": "rel_rf_event_creator",
					"name": "event_creator",
					"type": "relation",
					"required": false,
					"collectionId": "_pb_users_auth_",
					"cascadeDelete": false,
					"maxSelect": 1
				},
				{
					"id": "text_rf_ticket_type",
					"name": "ticket_type",
					"type": "text",
					"required": false
				},
				{
					"id": "text_rf_contestant",
					"name": "contestant",
					"type": "text",
					"required": false
				},
				{
					"id": "text_rf_discount",
					"name": "discount_code",
					"type": "text",
					"required": false
				},
				{
					"id": "sel_rf_method",
					"name": "payment_method",
					"type": "select",
					"required": true,
					"maxSelect": 1,
					"values": ["paystack", "monnify", "wallet", "agent", "bitcoin"]
				},
				{
					"id": "bool_rf_settled",
					"name": "settled",
					"type": "bool",
					"required": false
				},
				{
					"id": "date_rf_settled_at",
					"name": "settled_at",
					"type": "date",
					"required": false
				},
				{
					"id": "text_rf_ticket_id",
					"name": "ticket_id",
					"type": "text",
					"required": false
				},
				{
					"id": "autodate_rf_created",
					"name": "created",
					"type": "autodate",
					"onCreate": true,
					"onUpdate": false
				}
			],
			"indexes": [
				"CREATE UNIQUE INDEX idx_references_reference ON \"references\" (\"reference\")"
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
		collection, err := app.FindCollectionByNameOrId("pbc_2602490748")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
