package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Author writes books.  Deleting an author that is still referenced by a
// book is refused by the repository layer.
type Author struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Publisher publishes books.  Same lifecycle as Author.
type Publisher struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Book is a catalog entry.  Price is the current list price; order lines
// copy it when they are created and never look it up again.
//
// Fields:
//
//	ID              – books.id
//	Title           – books.title
//	ISBN            – books.isbn (unique)
//	PublicationYear – books.publication_year
//	Price           – books.price, DECIMAL(10,2), never negative
//	AuthorID        – books.author_id
//	PublisherID     – books.publisher_id
type Book struct {
	ID              uint64          `json:"id"`
	Title           string          `json:"title"`
	ISBN            string          `json:"isbn"`
	PublicationYear int             `json:"publication_year"`
	Price           decimal.Decimal `json:"price"`
	AuthorID        uint64          `json:"author_id"`
	PublisherID     uint64          `json:"publisher_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
