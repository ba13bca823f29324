package models

import "time"

// Document is one docstore document persisted as a JSON body keyed by
// collection and key.
type Document struct {
	Collection string    `gorm:"column:collection;primaryKey;type:text"`
	Key        string    `gorm:"column:doc_key;primaryKey;type:text"`
	Body       string    `gorm:"column:body;type:jsonb;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Document) TableName() string { return "documents" }
