package schema

import "time"

// SchemaVersion is bumped whenever the snapshot layout changes in a way
// hydration has to account for.
const SchemaVersion = "1"

type StoreMeta struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Key       string    `gorm:"column:key;type:text;uniqueIndex;not null"`
	Value     string    `gorm:"column:value;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (StoreMeta) TableName() string {
	return "store_meta"
}
