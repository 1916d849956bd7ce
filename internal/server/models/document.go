package models

import (
	"sort"
	"time"
)

// Document is a book or file in a user's library.
type Document struct {
	ID         string     `json:"documentID"`
	Name       string     `json:"name"`
	URL        string     `json:"url"`
	Thumbnail  string     `json:"thumbnail"`
	LastReadAt *time.Time `json:"lastRead"`
}

// Collection groups documents for display.
type Collection struct {
	ID   string `json:"collectionID"`
	Name string `json:"name"`
}

// Library is the display data returned with a successful login.
type Library struct {
	Documents   []*Document
	Collections []*Collection
}

// SortByLastReadDesc orders documents so the most recently read comes first.
// Documents that were never read go last, keeping their relative order.
func SortByLastReadDesc(docs []*Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i].LastReadAt, docs[j].LastReadAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}
