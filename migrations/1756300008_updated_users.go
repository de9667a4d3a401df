package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		// wallet_pin holds a bcrypt hash, never exposed through the API.
		collection.Fields.Add(&core.TextField{
			Id:     "text_us_wallet_pin",
			Name:   "wallet_pin",
			Hidden: true,
			Max:    100,
		})

		// referred_by is the referral code supplied at signup.
		collection.Fields.Add(&core.TextField{
			Id:   "text_us_referred_by",
			Name: "referred_by",
			Max:  64,
		})

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		collection.Fields.RemoveById("text_us_wallet_pin")
		collection.Fields.RemoveById("text_us_referred_by")
		return app.Save(collection)
	})
}
