package model

// SnapshotRecord is one durable engine record (the case collection or the
// consult queue), stored as a complete JSON array. Every save overwrites the
// whole value, so a reader always sees a self-consistent snapshot.
type SnapshotRecord struct {
	Key       string `gorm:"column:key;type:text;primaryKey"`
	Value     string `gorm:"column:value;type:text;not null"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (SnapshotRecord) TableName() string {
	return "case_snapshots"
}
