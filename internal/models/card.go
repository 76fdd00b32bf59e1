// Package models contains the domain types shared by storage, services and
// transports.
package models

import "time"

// Card is a single owned trading card.
//
// ID is assigned by the backend: local SQL backends use the decimal form of
// an integer key, the hosted backend whatever the service returns. UserID is
// nil for anonymous and local records.
type Card struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SetName    string    `json:"set_name"`
	CardNumber *string   `json:"card_number"`
	Rarity     *string   `json:"rarity"`
	Quantity   int       `json:"quantity"`
	IsFavorite bool      `json:"is_favorite"`
	DateAdded  time.Time `json:"date_added"`
	UserID     *string   `json:"user_id,omitempty"`
}

// CardInput holds the user-supplied fields of a new card.
type CardInput struct {
	Name       string  `json:"name"`
	SetName    string  `json:"set_name"`
	CardNumber *string `json:"card_number"`
	Rarity     *string `json:"rarity"`
	Quantity   int     `json:"quantity"`
	IsFavorite bool    `json:"is_favorite"`
}

// CardUpdate is a partial update; nil fields are left unchanged.
type CardUpdate struct {
	Name       *string `json:"name,omitempty"`
	SetName    *string `json:"set_name,omitempty"`
	CardNumber *string `json:"card_number,omitempty"`
	Rarity     *string `json:"rarity,omitempty"`
	Quantity   *int    `json:"quantity,omitempty"`
	IsFavorite *bool   `json:"is_favorite,omitempty"`
}

// IsEmpty reports whether the update sets no field at all.
func (u CardUpdate) IsEmpty() bool {
	return u.Name == nil && u.SetName == nil && u.CardNumber == nil &&
		u.Rarity == nil && u.Quantity == nil && u.IsFavorite == nil
}

// Apply returns a copy of c with the non-nil fields of u written over it.
func (u CardUpdate) Apply(c Card) Card {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.SetName != nil {
		c.SetName = *u.SetName
	}
	if u.CardNumber != nil {
		c.CardNumber = u.CardNumber
	}
	if u.Rarity != nil {
		c.Rarity = u.Rarity
	}
	if u.Quantity != nil {
		c.Quantity = *u.Quantity
	}
	if u.IsFavorite != nil {
		c.IsFavorite = *u.IsFavorite
	}
	return c
}

// Input returns the user-editable part of c.
func (c Card) Input() CardInput {
	return CardInput{
		Name:       c.Name,
		SetName:    c.SetName,
		CardNumber: c.CardNumber,
		Rarity:     c.Rarity,
		Quantity:   c.Quantity,
		IsFavorite: c.IsFavorite,
	}
}

// Stats summarizes a collection.
type Stats struct {
	TotalCards    int    `json:"total_cards"`
	TotalQuantity int    `json:"total_quantity"`
	Favorites     int    `json:"favorites"`
	MostCommonSet string `json:"most_common_set"`
	UniqueSets    int    `json:"unique_sets"`
}

// OwnerStats is the per-user slice of SystemStats.
type OwnerStats struct {
	UserID    string `json:"user_id"`
	Cards     int    `json:"cards"`
	Quantity  int    `json:"quantity"`
	Favorites int    `json:"favorites"`
}

// SystemStats is the admin view over every card of every user.
type SystemStats struct {
	Stats
	ActiveUsers int          `json:"active_users"`
	PerUser     []OwnerStats `json:"per_user"`
}
