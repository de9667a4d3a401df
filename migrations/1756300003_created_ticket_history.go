package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "pbc_2478702895",
			"name": "ticket_history",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "text_th_ticket_id",
					"name": "ticket_id",
					"type": "text",
					"required": true,
					"presentable": true,
					"max": 32
				},
				{
					"id": "rel_th_owner",
					"name": "owner",
					"type": "relation",
					"required": false,
					"collectionId": "_pb_users_auth_",
					"cascadeDelete": false,
					"maxSelect": 1
				},
				{
					"id": "text_th_owner_name",
					"name": "owner_name",
					"type": "text",
					"required": false
				},
				{
					"id": "email_th_owner_email",
					"name": "owner_email",
					"type": "email",
					"required": false
				},
				{
					"id": "rel_th_event",
					"name": "event",
					"type": "relation",
					"required": true,
					"collectionId": "pbc_1687431684",
					"cascadeDelete": false,
					"maxSelect": 1
				},
				{
					"id": "text_th_event_name",
					"name": "event_name",
					"type": "text",
					"required": false
				},
				{
					"id": "rel_th_event_creator",
					"name": "event_creator",
					"type": "relation",
					"required": false,
					"collectionId": "_pb_users_auth_",
					"cascadeDelete": false,
					"maxSelect": 1
				},
				{
					"id": "text_th_ticket_type",
					"name": "ticket_type",
					"type": "text",
					"required": false
				},
				{
					"id": "num_th_price",
					"name": "price",
					"type": "number",
					"required": false,
					"onlyInt": true
				},
				{
					"id": "num_th_original_price",
					"name": "original_price",
					"type": "number",
					"required": false,
					"onlyInt": true
				},
				{
					"id": "num_th_fee",
					"name": "transaction_fee",
					"type": "number",
					"required": false,
					"onlyInt": true
				},
				{
					"id": "num_th_total",
					"name": "total_amount",
					"type": "number",
					"required": false,
					"onlyInt": true
				},
				{
					"id": "sel_th_method",
					"name": "payment_method",
					"type": "select",
					"required": false,
					"maxSelect": 1,
					"values": ["paystack", "monnify", "wallet", "agent", "bitcoin"]
				},
				{
					"id": "text_th_reference",
					"name": "payment_reference",
					"type": "text",
					"required": true,
					"max": 32
				},
				{
					"id": "bool_th_verified",
					"name": "verified",
					"type": "bool",
					"required": false
				},
				{
					"id": "autodate_th_created",
					"name": "created",
					"type": "autodate",
					"onCreate": true,
					"onUpdate": false
				}
			],
			"indexes": [
				"CREATE UNIQUE INDEX idx_ticket_history_payment_reference ON ticket_history (payment_reference)"
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
		collection, err := app.FindCollectionByNameOrId("pbc_2478702895")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
