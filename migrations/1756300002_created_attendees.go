package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "pbc_3142635681",
			"name": "attendees",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "text_at_ticket_id",
					"name": "ticket_id",
					"type": "text",
					"required": true,
					"presentable": true,
					"max": 32
				},
				{
					"id": "rel_at_owner",
					"name": "owner",
					"type": "relation",
					"required": false,
					"collectionId": "_pb_users_auth_",
					"cascadeDelete": false,
					"maxSelect": 1
				},
				{
					"id": "text_at_owner_name",
					"name": "owner_name",
					"type": "text",
					"required": false
				},
				{
					"id": "email_at_owner_email",
					"name": "owner_email",
					"type": "email",
					"required": false
				},
				{
					"id": "rel_at_event",
					"name": "event",
					"type": "relation",
					"required": true,
					"collectionId": "pbc_1687431684",
					"cascadeDelete": false,
					"maxSelect": 1
				},
				{
					"id": "text_at_event_name",
					"name": "event_name",
					"type": "text",
					"required": false
				},
				{
					"id": "rel_at_event_creator",
					"name": "event_creator",
					"type": "relation",
					"required": false,
					"collectionId": "_pb_users_auth_",
					"cascadeDelete": false,
					"maxSelect": 1
				},
				{
					"id": "text_at_ticket_type",
					"name": "ticket_type",
					"type": "text",
					"required": false
				},
				{
					"id": "num_at_price",
					"name": "price",
					"type": "number",
					"required": false,
					"onlyInt": true
				},
				{
					"id": "num_at_original_price",
					"name": "original_price",
					"type": "number",
					"required": false,
					"onlyInt": true
				},
				{
					"id": "num_at_fee",
					"name": "transaction_fee",
					"type": "number",
					"required": false,
					"onlyInt": true
				},
				{
					"id": "num_at_total",
					"name": "total_amount",
					"type": "number",
					"required": false,
					"onlyInt": true
				},
				{
					"id": "sel_at_method",
					"name": "payment_method",
					"type": "select",
					"required": false,
					"maxSelect": 1,
					"values": ["paystack", "monnify", "wallet", "agent", "bitcoin"]
				},
				{
					"id": "text_at_reference",
					"name": "payment_reference",
					"type": "text",
					"required": true,
					"max": 32
				},
				{
					"id": "bool_at_verified",
					"name": "verified",
					"type": "bool",
					"required": false
				},
				{
					"id": "autodate_at_created",
					"name": "created",
					"type": "autodate",
					"onCreate": true,
					"onUpdate": false
				}
			],
			"indexes": [
				"CREATE UNIQUE INDEX idx_attendees_payment_reference ON attendees (payment_reference)"
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
		collection, err := app.FindCollectionByNameOrId("pbc_3142635681")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
